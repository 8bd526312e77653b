package models

// VideoStatus represents the upload lifecycle stage of a video.
type VideoStatus string

const (
	StatusSplit             VideoStatus = "split"
	StatusUploading         VideoStatus = "uploading"
	StatusPartiallyUploaded VideoStatus = "partially_uploaded"
	StatusUploaded          VideoStatus = "uploaded"

	// StatusUploadFailed is reserved. Failed videos keep their last
	// in-progress status so a later run can resume them.
	StatusUploadFailed VideoStatus = "upload_failed"
)

// IsValid returns true if the status is a valid VideoStatus.
func (s VideoStatus) IsValid() bool {
	switch s {
	case StatusSplit, StatusUploading, StatusPartiallyUploaded, StatusUploaded, StatusUploadFailed:
		return true
	}
	return false
}

// PartStatus represents the upload state of one segment.
type PartStatus string

const (
	PartUploading PartStatus = "uploading"
	PartUploaded  PartStatus = "uploaded"
)

// Video is one recording to be uploaded, split into ordered segments by an
// upstream stage.
type Video struct {
	// Keys
	PK     string `dynamodbav:"pk"`
	SK     string `dynamodbav:"sk"`
	GSI1PK string `dynamodbav:"gsi1pk,omitempty"`
	GSI1SK string `dynamodbav:"gsi1sk,omitempty"`

	// Attributes
	ID         int64       `dynamodbav:"video_id" json:"videoId"`
	UserID     int64       `dynamodbav:"user_id" json:"userId"`
	Name       string      `dynamodbav:"name" json:"name"`
	CreatedAt  string      `dynamodbav:"created_at" json:"createdAt"`
	PartCount  int         `dynamodbav:"part_count" json:"partCount"`
	Status     VideoStatus `dynamodbav:"status" json:"status"`
	PlaylistID string      `dynamodbav:"playlist_id,omitempty" json:"playlistId,omitempty"`
	FailCount  int         `dynamodbav:"fail_count" json:"failCount"`
	FailReason string      `dynamodbav:"fail_reason,omitempty" json:"failReason,omitempty"`
	SourceURL  string      `dynamodbav:"source_url,omitempty" json:"sourceUrl,omitempty"`
	UpdatedAt  string      `dynamodbav:"updated_at" json:"updatedAt"`
}

// User is an account that owns videos and authenticates to the platform.
type User struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`

	ID          int64  `dynamodbav:"user_id" json:"userId"`
	ChannelName string `dynamodbav:"channel_name" json:"channelName"`
	ChannelID   string `dynamodbav:"channel_id" json:"channelId"`
	Timezone    string `dynamodbav:"timezone" json:"timezone"`
	AccountID   string `dynamodbav:"account_id" json:"accountId"`
}

// VideoPartUpload is the persisted record of one segment's upload attempt.
// Unique per (video id, part number); the part number is 1-based.
type VideoPartUpload struct {
	PK string `dynamodbav:"pk"`
	SK string `dynamodbav:"sk"`

	VideoID       int64      `dynamodbav:"video_id" json:"videoId"`
	Part          int        `dynamodbav:"part" json:"part"`
	Status        PartStatus `dynamodbav:"status" json:"status"`
	RemoteVideoID string     `dynamodbav:"remote_video_id,omitempty" json:"remoteVideoId,omitempty"`
	UpdatedAt     string     `dynamodbav:"updated_at" json:"updatedAt"`
}
