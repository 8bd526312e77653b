package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"github.com/vodbackup/uploader/internal/render"
	"github.com/vodbackup/uploader/pkg/models"
)

// SegmentMIMEType is the container MIME type sent with resumable uploads.
const SegmentMIMEType = "video/mp4"

// YouTube implements Client against the YouTube Data API v3.
type YouTube struct {
	service *youtube.Service
	log     *slog.Logger
}

// NewYouTube creates a YouTube client from an authorized service.
func NewYouTube(service *youtube.Service, log *slog.Logger) *YouTube {
	return &YouTube{
		service: service,
		log:     log,
	}
}

// CreatePlaylist creates a private playlist with the rendered metadata.
func (y *YouTube) CreatePlaylist(ctx context.Context, payload *render.Payload) (string, error) {
	playlist := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       payload.PlaylistTitle,
			Description: payload.PlaylistDescription,
		},
		Status: &youtube.PlaylistStatus{
			PrivacyStatus: payload.PlaylistPrivacy,
		},
	}

	resp, err := y.service.Playlists.Insert([]string{"snippet", "status"}, playlist).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrCreatePlaylist, err)
	}
	if resp.Id == "" {
		return "", fmt.Errorf("%w: playlist insert", models.ErrMissingRemoteID)
	}

	y.log.DebugContext(ctx, "Created playlist", "playlistId", resp.Id)
	return resp.Id, nil
}

// UploadPart uploads one segment file with a resumable transfer.
func (y *YouTube) UploadPart(ctx context.Context, path string, payload *render.Payload) (string, error) {
	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       payload.VideoTitle,
			Description: payload.VideoDescription,
			CategoryId:  payload.CategoryID,
			Tags:        payload.Tags,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           payload.Privacy,
			PublicStatsViewable:     true,
			Embeddable:              true,
			SelfDeclaredMadeForKids: false,
			ForceSendFields:         []string{"SelfDeclaredMadeForKids"},
		},
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadPart, err)
	}
	defer file.Close()

	resp, err := y.service.Videos.Insert([]string{"snippet", "status"}, video).
		Media(file, googleapi.ContentType(SegmentMIMEType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUploadPart, err)
	}
	if resp.Id == "" {
		return "", fmt.Errorf("%w: video insert", models.ErrMissingRemoteID)
	}

	y.log.DebugContext(ctx, "Uploaded segment", "path", path, "remoteVideoId", resp.Id)
	return resp.Id, nil
}

// AddToPlaylist appends one uploaded video to a playlist.
func (y *YouTube) AddToPlaylist(ctx context.Context, remoteVideoID, playlistID string) error {
	item := &youtube.PlaylistItem{
		Snippet: &youtube.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &youtube.ResourceId{
				Kind:    "youtube#video",
				VideoId: remoteVideoID,
			},
		},
	}

	if _, err := y.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrAttachToPlaylist, err)
	}
	return nil
}
