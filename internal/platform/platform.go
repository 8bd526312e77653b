// Package platform is the thin contract over the remote video-hosting API.
package platform

import (
	"context"

	"github.com/vodbackup/uploader/internal/render"
)

// Client exposes the three remote operations the pipeline needs. One Client
// acts on behalf of one authorized account.
type Client interface {
	// CreatePlaylist creates the playlist that groups one video's parts and
	// returns its platform id.
	CreatePlaylist(ctx context.Context, payload *render.Payload) (string, error)

	// UploadPart performs a resumable upload of one segment file with the
	// rendered metadata and returns the platform's video id.
	UploadPart(ctx context.Context, path string, payload *render.Payload) (string, error)

	// AddToPlaylist appends an uploaded video to a playlist. Parts must be
	// attached in ascending part order to keep the playlist sorted.
	AddToPlaylist(ctx context.Context, remoteVideoID, playlistID string) error
}
