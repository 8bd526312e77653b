// Package uploader drives the per-video upload state machine.
package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vodbackup/uploader/internal/config"
	"github.com/vodbackup/uploader/internal/logger"
	"github.com/vodbackup/uploader/internal/metrics"
	"github.com/vodbackup/uploader/internal/platform"
	"github.com/vodbackup/uploader/internal/render"
	"github.com/vodbackup/uploader/internal/segments"
	"github.com/vodbackup/uploader/pkg/models"
)

var tracer = otel.Tracer("vod-uploader")

// eligibleStatuses are the stages a run picks up. In-progress statuses are
// included so a crashed upload resumes on the next run.
var eligibleStatuses = []models.VideoStatus{
	models.StatusSplit,
	models.StatusUploading,
	models.StatusPartiallyUploaded,
}

// Store is the progress-store gateway the orchestrator needs.
type Store interface {
	ListVideosByStatus(ctx context.Context, status models.VideoStatus, limit int32) ([]models.Video, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateVideoStatus(ctx context.Context, video *models.Video, status models.VideoStatus) error
	SetPlaylistID(ctx context.Context, video *models.Video, playlistID string) error
	RecordFailure(ctx context.Context, video *models.Video, failCount int, failReason string) error
	InsertPartUpload(ctx context.Context, videoID int64, part int) error
	CompletePartUpload(ctx context.Context, videoID int64, part int, remoteVideoID string) error
	ListPartUploads(ctx context.Context, videoID int64) ([]models.VideoPartUpload, error)
}

// Registry resolves the authorized platform client of a user.
type Registry interface {
	ClientFor(userID int64) (platform.Client, error)
}

// Archiver copies a finished segment to durable storage before it is
// deleted locally. Optional.
type Archiver interface {
	Archive(ctx context.Context, videoID int64, part int, path string) error
}

// Notifier publishes a completion event once a video is fully uploaded.
// Optional.
type Notifier interface {
	VideoUploaded(ctx context.Context, video *models.Video) error
}

// Uploader is the top-level controller of the upload pipeline.
type Uploader struct {
	store    Store
	registry Registry
	engine   *render.Engine
	archiver Archiver
	notifier Notifier
	cfg      *config.Config
	log      *slog.Logger
}

// Config holds uploader dependencies.
type Config struct {
	Store     Store
	Registry  Registry
	Engine    *render.Engine
	Archiver  Archiver
	Notifier  Notifier
	AppConfig *config.Config
	Logger    *slog.Logger
}

// New creates an Uploader with the given configuration.
func New(cfg *Config) *Uploader {
	return &Uploader{
		store:    cfg.Store,
		registry: cfg.Registry,
		engine:   cfg.Engine,
		archiver: cfg.Archiver,
		notifier: cfg.Notifier,
		cfg:      cfg.AppConfig,
		log:      cfg.Logger,
	}
}

// Run selects eligible videos and attempts to fully upload each, one at a
// time. A failing video is recorded and skipped; the batch continues. No
// video is retried within the same run.
func (u *Uploader) Run(ctx context.Context) error {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "upload-batch")
	defer span.End()
	span.SetAttributes(attribute.String("run.id", runID))
	log := u.log.With("runId", runID)

	videos, err := u.selectEligible(ctx)
	if err != nil {
		return fmt.Errorf("failed to select eligible videos: %w", err)
	}
	metrics.BatchSize.Observe(float64(len(videos)))
	logger.Info(ctx, log, "Selected videos to upload", "count", len(videos))

	for i := range videos {
		video := &videos[i]

		if ctx.Err() != nil {
			logger.Warn(ctx, log, "Run cancelled, leaving remaining videos for the next run",
				"remaining", len(videos)-i,
			)
			return ctx.Err()
		}

		metrics.ActiveVideo.Set(1)
		start := time.Now()
		err := u.uploadVideo(ctx, log, video)
		metrics.ActiveVideo.Set(0)

		if err != nil {
			logger.Error(ctx, log, "Failed to upload video",
				"videoId", video.ID,
				"name", video.Name,
				"error", err,
			)
			metrics.RecordFailure()
			u.recordFailure(ctx, log, video, err)
			continue
		}

		metrics.RecordSuccess()
		metrics.VideoUploadDuration.Observe(time.Since(start).Seconds())
		logger.Info(ctx, log, "Uploaded video",
			"videoId", video.ID,
			"name", video.Name,
			"durationSeconds", time.Since(start).Seconds(),
		)
	}

	return nil
}

// selectEligible merges the per-status queries, re-sorts by creation time
// and caps the batch.
func (u *Uploader) selectEligible(ctx context.Context) ([]models.Video, error) {
	limit := int32(u.cfg.Uploader.MaxVideosPerRun)

	var videos []models.Video
	for _, status := range eligibleStatuses {
		batch, err := u.store.ListVideosByStatus(ctx, status, limit)
		if err != nil {
			return nil, err
		}
		videos = append(videos, batch...)
	}

	sortVideosByCreation(videos)
	if len(videos) > int(limit) {
		videos = videos[:limit]
	}
	return videos, nil
}

func (u *Uploader) uploadVideo(ctx context.Context, log *slog.Logger, video *models.Video) error {
	ctx, span := tracer.Start(ctx, "upload-video")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("video.id", video.ID),
		attribute.Int64("video.user_id", video.UserID),
		attribute.Int("video.part_count", video.PartCount),
	)

	client, err := u.registry.ClientFor(video.UserID)
	if err != nil {
		return err
	}

	if err := u.store.UpdateVideoStatus(ctx, video, models.StatusUploading); err != nil {
		return err
	}

	remaining, err := u.discoverRemaining(ctx, log, video)
	if err != nil {
		return err
	}

	user, err := u.store.GetUser(ctx, video.UserID)
	if err != nil {
		return err
	}

	payload, err := u.renderPlaylist(video, user)
	if err != nil {
		return err
	}

	// A persisted playlist id short-circuits creation so a resumed run
	// does not orphan the old playlist.
	if video.PlaylistID == "" {
		playlistID, err := client.CreatePlaylist(ctx, payload)
		if err != nil {
			return err
		}
		metrics.PlaylistsCreated.Inc()
		if err := u.store.SetPlaylistID(ctx, video, playlistID); err != nil {
			return err
		}
	}

	for _, seg := range remaining {
		if err := u.uploadPart(ctx, log, client, video, user, payload, seg); err != nil {
			return err
		}
		if err := u.store.UpdateVideoStatus(ctx, video, models.StatusPartiallyUploaded); err != nil {
			return err
		}
	}

	if err := u.store.UpdateVideoStatus(ctx, video, models.StatusUploaded); err != nil {
		return err
	}

	if u.notifier != nil {
		if err := u.notifier.VideoUploaded(ctx, video); err != nil {
			logger.Warn(ctx, log, "Failed to publish completion event",
				"videoId", video.ID,
				"error", err,
			)
		}
	}

	return nil
}

func (u *Uploader) uploadPart(ctx context.Context, log *slog.Logger, client platform.Client, video *models.Video, user *models.User, base *render.Payload, seg segments.Segment) error {
	ctx, span := tracer.Start(ctx, "upload-part")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("video.id", video.ID),
		attribute.Int("part", seg.Part),
	)

	if err := u.store.InsertPartUpload(ctx, video.ID, seg.Part); err != nil {
		return err
	}

	payload := *base
	payload.PartNumber = seg.Part
	title, err := u.engine.Title(video, user, render.VideoTarget(seg.Part))
	if err != nil {
		return err
	}
	description, err := u.engine.Description(video, user, render.VideoTarget(seg.Part))
	if err != nil {
		return err
	}
	payload.VideoTitle = title
	payload.VideoDescription = description

	logger.Info(ctx, log, "Uploading segment",
		"videoId", video.ID,
		"part", seg.Part,
		"path", seg.Path,
	)

	start := time.Now()
	remoteID, err := client.UploadPart(ctx, seg.Path, &payload)
	if err != nil {
		return err
	}
	metrics.PartUploadDuration.Observe(time.Since(start).Seconds())

	if err := client.AddToPlaylist(ctx, remoteID, video.PlaylistID); err != nil {
		return err
	}

	if err := u.store.CompletePartUpload(ctx, video.ID, seg.Part, remoteID); err != nil {
		return err
	}
	metrics.PartsUploaded.Inc()

	u.finishSegment(ctx, log, video.ID, seg)
	return nil
}

// discoverRemaining lists the segment directory, drops parts that are
// already recorded as uploaded from an earlier run, and validates the
// remainder against the declared part count.
func (u *Uploader) discoverRemaining(ctx context.Context, log *slog.Logger, video *models.Video) ([]segments.Segment, error) {
	dir := filepath.Join(u.cfg.Uploader.DownloadRoot, strconv.FormatInt(video.ID, 10))

	segs, err := segments.Discover(dir)
	if err != nil {
		return nil, err
	}

	records, err := u.store.ListPartUploads(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	uploaded := make(map[int]bool, len(records))
	for _, record := range records {
		if record.Status == models.PartUploaded {
			uploaded[record.Part] = true
		}
	}

	remaining := segs[:0]
	for _, seg := range segs {
		if uploaded[seg.Part] {
			// The part record says this segment is done; its file
			// should have been deleted. Drop the leftover instead
			// of re-uploading.
			logger.Warn(ctx, log, "Removing leftover file of an already uploaded part",
				"videoId", video.ID,
				"part", seg.Part,
				"path", seg.Path,
			)
			if err := os.Remove(seg.Path); err != nil && !os.IsNotExist(err) {
				logger.Warn(ctx, log, "Failed to remove leftover segment", "path", seg.Path, "error", err)
			}
			continue
		}
		remaining = append(remaining, seg)
	}

	if err := segments.ValidateCount(remaining, video.PartCount-len(uploaded)); err != nil {
		return nil, err
	}
	return remaining, nil
}

// finishSegment archives the uploaded file when archiving is configured,
// then deletes it. File absence is the second resume signal next to the
// part record; the record is written first so the two never contradict.
func (u *Uploader) finishSegment(ctx context.Context, log *slog.Logger, videoID int64, seg segments.Segment) {
	if u.archiver != nil {
		if err := u.archiver.Archive(ctx, videoID, seg.Part, seg.Path); err != nil {
			logger.Error(ctx, log, "Failed to archive segment",
				"videoId", videoID,
				"part", seg.Part,
				"error", err,
			)
		}
	}
	if err := os.Remove(seg.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn(ctx, log, "Failed to delete uploaded segment",
			"videoId", videoID,
			"part", seg.Part,
			"path", seg.Path,
			"error", err,
		)
	}
}

func (u *Uploader) renderPlaylist(video *models.Video, user *models.User) (*render.Payload, error) {
	title, err := u.engine.Title(video, user, render.PlaylistTarget())
	if err != nil {
		return nil, err
	}
	description, err := u.engine.Description(video, user, render.PlaylistTarget())
	if err != nil {
		return nil, err
	}

	return &render.Payload{
		Tags:                []string{},
		CategoryID:          render.DefaultCategoryID,
		Privacy:             render.PrivacyPrivate,
		PlaylistTitle:       title,
		PlaylistDescription: description,
		PlaylistPrivacy:     render.PrivacyPrivate,
	}, nil
}

// recordFailure persists the incremented failure counter and the prepended
// diagnostic line. Losing diagnostics is worse than the failure itself, so
// a failed write is logged at error level.
func (u *Uploader) recordFailure(ctx context.Context, log *slog.Logger, video *models.Video, cause error) {
	failCount := video.FailCount + 1
	failReason := fmt.Sprintf("%d: %v\n\n%s", failCount, cause, video.FailReason)

	if err := u.store.RecordFailure(ctx, video, failCount, failReason); err != nil {
		logger.Error(ctx, log, "Failed to persist failure diagnostics",
			"videoId", video.ID,
			"failCount", failCount,
			"cause", cause,
			"error", err,
		)
	}
}

func sortVideosByCreation(videos []models.Video) {
	// CreatedAt is RFC3339 in UTC, so string order is chronological order.
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].CreatedAt != videos[j].CreatedAt {
			return videos[i].CreatedAt < videos[j].CreatedAt
		}
		return videos[i].ID < videos[j].ID
	})
}
