// Package render generates platform titles and descriptions from the
// operator's templates, a video and its owning user.
package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vodbackup/uploader/pkg/models"
)

// TitleMaxLength is the hard title limit imposed by the platform.
const TitleMaxLength = 100

// Platform metadata defaults.
const (
	DefaultCategoryID = "20"
	PrivacyPrivate    = "private"

	channelURLPattern = "https://twitch.tv/%s"
)

// Recognized template tokens. Substitution is literal find-replace; the
// tokens are mutually exclusive substrings so order does not matter.
const (
	TokenOriginalTitle       = "$$original_title$$"
	TokenOriginalDescription = "$$original_description$$"
	TokenUploadDate          = "$$upload_date$$"
	TokenUploadDateShort     = "$$upload_date_short$$"
	TokenSourceURL           = "$$source_url$$"
	TokenChannelName         = "$$channel_name$$"
	TokenChannelURL          = "$$channel_url$$"
	TokenPartCount           = "$$part_count$$"
	TokenPartIdent           = "$$part_ident$$"
)

// Built-in templates. The description template may be overridden by
// configuration; the title templates may not.
const (
	defaultVideoTitleTemplate    = "[" + TokenUploadDateShort + "]" + TokenPartIdent + " " + TokenOriginalTitle
	defaultPlaylistTitleTemplate = "[" + TokenUploadDateShort + "] " + TokenOriginalTitle

	defaultDescriptionTemplate = "default description for video: " + TokenOriginalTitle +
		" from " + TokenUploadDate +
		"\n\nOriginal stream here: \n" + TokenSourceURL +
		"\n\nWatch " + TokenChannelName + " live at: " + TokenChannelURL
)

// Target selects what is being rendered: one part of a video, or the
// playlist that groups all parts.
type Target struct {
	part     int
	playlist bool
}

// VideoTarget renders metadata for the given 1-based part.
func VideoTarget(part int) Target {
	return Target{part: part}
}

// PlaylistTarget renders metadata for the playlist.
func PlaylistTarget() Target {
	return Target{playlist: true}
}

// Payload is the fully-rendered metadata bundle for one platform call.
type Payload struct {
	PartNumber          int
	VideoTitle          string
	VideoDescription    string
	Tags                []string
	CategoryID          string
	Privacy             string
	PlaylistTitle       string
	PlaylistDescription string
	PlaylistPrivacy     string
}

// Engine renders titles and descriptions. It is pure: no I/O, deterministic
// for a given video, user and target.
type Engine struct {
	descriptionTemplate string
}

// NewEngine creates an Engine. descriptionTemplate overrides the built-in
// description template when non-empty.
func NewEngine(descriptionTemplate string) *Engine {
	return &Engine{descriptionTemplate: descriptionTemplate}
}

// Title renders the title for the target, truncated to TitleMaxLength.
func (e *Engine) Title(video *models.Video, user *models.User, target Target) (string, error) {
	template := defaultVideoTitleTemplate
	if target.playlist {
		template = defaultPlaylistTitleTemplate
	}

	title, err := e.substitute(template, video, user, target)
	if err != nil {
		return "", err
	}
	return Shorten(title, TitleMaxLength), nil
}

// Description renders the description for the target. Descriptions are not
// length-limited.
func (e *Engine) Description(video *models.Video, user *models.User, target Target) (string, error) {
	template := defaultDescriptionTemplate
	if e.descriptionTemplate != "" {
		template = e.descriptionTemplate
	}
	return e.substitute(template, video, user, target)
}

func (e *Engine) substitute(template string, video *models.Video, user *models.User, target Target) (string, error) {
	loc, err := location(user.Timezone)
	if err != nil {
		return "", fmt.Errorf("failed to parse timezone %q: %w", user.Timezone, err)
	}
	createdAt, err := time.Parse(time.RFC3339, video.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to parse created_at %q: %w", video.CreatedAt, err)
	}
	local := createdAt.In(loc)

	s := strings.NewReplacer(
		TokenOriginalTitle, video.Name,
		TokenOriginalDescription, "",
		TokenUploadDate, local.Format("2006-01-02 15:04:05 -07:00"),
		TokenUploadDateShort, local.Format("2006-01-02"),
		TokenSourceURL, video.SourceURL,
		TokenChannelName, user.ChannelName,
		TokenChannelURL, fmt.Sprintf(channelURLPattern, user.ChannelID),
		TokenPartCount, strconv.Itoa(video.PartCount),
	).Replace(template)

	if !target.playlist {
		s = strings.ReplaceAll(s, TokenPartIdent, ProgressIndicator(target.part, video.PartCount))
	}
	return s, nil
}

// ProgressIndicator formats the "[current/total]" marker for one part,
// zero-padded to the decimal width of total. A single-part video has no
// marker.
func ProgressIndicator(current, total int) string {
	if total <= 1 {
		return ""
	}
	width := len(strconv.Itoa(total))
	return fmt.Sprintf("[%0*d/%0*d]", width, current, width, total)
}

// Shorten truncates s to limit runes, replacing the tail with "..." when the
// source exceeds the limit.
func Shorten(s string, limit int) string {
	const ellipsis = "..."
	if limit < len(ellipsis) {
		return ellipsis[:limit]
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit-len(ellipsis)]) + ellipsis
	}
	return s
}

func location(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	// Fixed offsets like "+00:00" / "-07:00"
	t, err := time.Parse("-07:00", tz)
	if err != nil {
		return nil, err
	}
	return t.Location(), nil
}
