package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/vodbackup/uploader/pkg/models"
)

// Store is the progress-store gateway. Videos, users and part-upload records
// share one table; GSI1 indexes videos by status with a created_at sort key.
type Store struct {
	client    *dynamodb.Client
	tableName string
}

// New creates a Store from an existing DynamoDB client.
func New(client *dynamodb.Client, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// Key construction. Part sort keys are zero-padded so parts of one video
// scan back in ascending part order.
func videoPK(id int64) string           { return fmt.Sprintf("VIDEO#%d", id) }
func userPK(id int64) string            { return fmt.Sprintf("USER#%d", id) }
func partSK(part int) string            { return fmt.Sprintf("PART#%05d", part) }
func statusKey(s models.VideoStatus) string { return fmt.Sprintf("STATUS#%s", s) }

// ListVideosByStatus returns videos with the given status in ascending
// creation order, capped at limit.
func (s *Store) ListVideosByStatus(ctx context.Context, status models.VideoStatus, limit int32) ([]models.Video, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: statusKey(status)},
		},
		ScanIndexForward: aws.Bool(true), // Ascending creation order (oldest first)
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list videos by status: %w", err)
	}

	var videos []models.Video
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &videos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal videos: %w", err)
	}

	return videos, nil
}

// GetVideo retrieves one video by id.
func (s *Store) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: videoPK(id)},
			"sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	if result.Item == nil {
		return nil, models.ErrVideoNotFound
	}

	var video models.Video
	if err := attributevalue.UnmarshalMap(result.Item, &video); err != nil {
		return nil, fmt.Errorf("failed to unmarshal video: %w", err)
	}
	return &video, nil
}

// GetUser retrieves one user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: userPK(id)},
			"sk": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if result.Item == nil {
		return nil, models.ErrUserNotFound
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(result.Item, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// ListUsers returns all user profiles. Used once at startup to build the
// account client registry.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("sk = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sk": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var users []models.User
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &users); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// UpdateVideoStatus advances a video's status. The GSI key moves with the
// status so the selection query keeps seeing the row under its new stage.
func (s *Store) UpdateVideoStatus(ctx context.Context, video *models.Video, status models.VideoStatus) error {
	if !status.IsValid() {
		return models.ErrInvalidStatus
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: videoPK(video.ID)},
			"sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression: aws.String("SET #status = :status, gsi1pk = :gsi1pk, updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(status)},
			":gsi1pk":     &types.AttributeValueMemberS{Value: statusKey(status)},
			":updated_at": &types.AttributeValueMemberS{Value: now},
		},
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return models.ErrVideoNotFound
		}
		return fmt.Errorf("failed to update video status: %w", err)
	}

	video.Status = status
	return nil
}

// SetPlaylistID persists the platform playlist id on a video.
func (s *Store) SetPlaylistID(ctx context.Context, video *models.Video, playlistID string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: videoPK(video.ID)},
			"sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression: aws.String("SET playlist_id = :playlist_id, updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":playlist_id": &types.AttributeValueMemberS{Value: playlistID},
			":updated_at":  &types.AttributeValueMemberS{Value: now},
		},
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return models.ErrVideoNotFound
		}
		return fmt.Errorf("failed to set playlist id: %w", err)
	}

	video.PlaylistID = playlistID
	return nil
}

// RecordFailure persists the failure counter and diagnostic log of a video.
func (s *Store) RecordFailure(ctx context.Context, video *models.Video, failCount int, failReason string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: videoPK(video.ID)},
			"sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		UpdateExpression: aws.String("SET fail_count = :fail_count, fail_reason = :fail_reason, updated_at = :updated_at"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fail_count":  &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", failCount)},
			":fail_reason": &types.AttributeValueMemberS{Value: failReason},
			":updated_at":  &types.AttributeValueMemberS{Value: now},
		},
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return models.ErrVideoNotFound
		}
		return fmt.Errorf("failed to record failure: %w", err)
	}

	video.FailCount = failCount
	video.FailReason = failReason
	return nil
}

// InsertPartUpload writes the record of a starting upload attempt for one
// part. The write is an unconditional put: a crashed run may have left an
// uploading row for the same part, and retrying it must not conflict.
func (s *Store) InsertPartUpload(ctx context.Context, videoID int64, part int) error {
	now := time.Now().UTC().Format(time.RFC3339)

	record := &models.VideoPartUpload{
		PK:        videoPK(videoID),
		SK:        partSK(part),
		VideoID:   videoID,
		Part:      part,
		Status:    models.PartUploading,
		UpdatedAt: now,
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal part upload: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to insert part upload: %w", err)
	}

	return nil
}

// CompletePartUpload marks a part as uploaded and stores the platform's id
// for it. The record is never mutated after this.
func (s *Store) CompletePartUpload(ctx context.Context, videoID int64, part int, remoteVideoID string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: videoPK(videoID)},
			"sk": &types.AttributeValueMemberS{Value: partSK(part)},
		},
		UpdateExpression: aws.String("SET #status = :status, remote_video_id = :remote_id, updated_at = :updated_at"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     &types.AttributeValueMemberS{Value: string(models.PartUploaded)},
			":remote_id":  &types.AttributeValueMemberS{Value: remoteVideoID},
			":updated_at": &types.AttributeValueMemberS{Value: now},
		},
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		return fmt.Errorf("failed to complete part upload: %w", err)
	}

	return nil
}

// ListPartUploads returns all part records of a video in ascending part
// order.
func (s *Store) ListPartUploads(ctx context.Context, videoID int64) ([]models.VideoPartUpload, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: videoPK(videoID)},
			":prefix": &types.AttributeValueMemberS{Value: "PART#"},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list part uploads: %w", err)
	}

	var parts []models.VideoPartUpload
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &parts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal part uploads: %w", err)
	}
	return parts, nil
}
