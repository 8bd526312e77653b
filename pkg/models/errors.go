package models

import "errors"

// Sentinel errors for the upload pipeline.
var (
	// Setup errors
	ErrNoClient = errors.New("no authorized client for user")

	// Segment discovery errors
	ErrWrongFileExtension = errors.New("segment has wrong file extension")
	ErrMissingFileStem    = errors.New("segment filename has no stem")
	ErrParsePartNumber    = errors.New("segment filename is not a part number")
	ErrPartCountMismatch  = errors.New("segment count does not match expected part count")

	// Platform errors
	ErrCreatePlaylist   = errors.New("failed to create playlist")
	ErrUploadPart       = errors.New("failed to upload segment")
	ErrAttachToPlaylist = errors.New("failed to add video to playlist")
	ErrMissingRemoteID  = errors.New("platform returned no identifier")

	// Storage errors
	ErrVideoNotFound = errors.New("video not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidStatus = errors.New("invalid video status")
)
