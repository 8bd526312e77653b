package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/vodbackup/uploader/pkg/models"
)

// SQSAPI defines the SQS operations needed for completion events.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// UploadedEvent is the message body published when a video is fully
// uploaded, consumed by downstream cleanup and cataloguing stages.
type UploadedEvent struct {
	VideoID    int64  `json:"videoId"`
	UserID     int64  `json:"userId"`
	PlaylistID string `json:"playlistId"`
	PartCount  int    `json:"partCount"`
}

// SQSNotifier publishes completion events to an SQS queue.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
	log      *slog.Logger
}

// NewSQSNotifier creates an SQSNotifier for the given queue.
func NewSQSNotifier(client SQSAPI, queueURL string, log *slog.Logger) *SQSNotifier {
	return &SQSNotifier{
		client:   client,
		queueURL: queueURL,
		log:      log,
	}
}

// VideoUploaded publishes the completion event for one video.
func (n *SQSNotifier) VideoUploaded(ctx context.Context, video *models.Video) error {
	body, err := json.Marshal(UploadedEvent{
		VideoID:    video.ID,
		UserID:     video.UserID,
		PlaylistID: video.PlaylistID,
		PartCount:  video.PartCount,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal completion event: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish completion event: %w", err)
	}

	n.log.DebugContext(ctx, "Published completion event", "videoId", video.ID)
	return nil
}
