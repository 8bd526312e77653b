package render

import (
	"strings"
	"testing"

	"github.com/vodbackup/uploader/pkg/models"
)

func sampleData() (*models.Video, *models.User) {
	video := &models.Video{
		ID:        3,
		UserID:    0,
		Name:      "wow",
		CreatedAt: "2023-10-09T05:33:59+00:00",
		PartCount: 4,
		Status:    models.StatusUploading,
		SourceURL: "https://twitch.tv/videos/123",
	}
	user := &models.User{
		ID:          0,
		ChannelName: "somestreamer",
		ChannelID:   "somestreamer",
		Timezone:    "+00:00",
	}
	return video, user
}

func TestShorten(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"123456789", 50, "123456789"},
		{"123456789", 5, "12..."},
		{"123456789", 3, "..."},
		{"123456789", 2, ".."},
		{"123456789", 0, ""},
	}

	for _, tt := range tests {
		if got := Shorten(tt.in, tt.limit); got != tt.want {
			t.Errorf("Shorten(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestShorten_ExactLimitLength(t *testing.T) {
	long := strings.Repeat("x", 150)
	got := Shorten(long, TitleMaxLength)
	if len([]rune(got)) != TitleMaxLength {
		t.Errorf("len(Shorten) = %d, want %d", len([]rune(got)), TitleMaxLength)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Shorten(%q) = %q, want ... suffix", long[:10], got)
	}

	short := strings.Repeat("x", TitleMaxLength)
	if got := Shorten(short, TitleMaxLength); got != short {
		t.Error("Shorten() modified a string within the limit")
	}
}

func TestTitle_Playlist(t *testing.T) {
	video, user := sampleData()
	got, err := NewEngine("").Title(video, user, PlaylistTarget())
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if got != "[2023-10-09] wow" {
		t.Errorf("Title() = %q, want %q", got, "[2023-10-09] wow")
	}
}

func TestTitle_PlaylistWithTimezone(t *testing.T) {
	video, user := sampleData()
	user.Timezone = "-07:00" // streamer timezone is -07:00 (PDT)
	got, err := NewEngine("").Title(video, user, PlaylistTarget())
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if got != "[2023-10-08] wow" {
		t.Errorf("Title() = %q, want %q", got, "[2023-10-08] wow")
	}
}

func TestTitle_Video(t *testing.T) {
	video, user := sampleData()
	engine := NewEngine("")

	tests := []struct {
		part int
		want string
	}{
		{1, "[2023-10-09][1/4] wow"},
		{2, "[2023-10-09][2/4] wow"},
		{3, "[2023-10-09][3/4] wow"},
		{4, "[2023-10-09][4/4] wow"},
	}
	for _, tt := range tests {
		got, err := engine.Title(video, user, VideoTarget(tt.part))
		if err != nil {
			t.Fatalf("Title(part %d) error = %v", tt.part, err)
		}
		if got != tt.want {
			t.Errorf("Title(part %d) = %q, want %q", tt.part, got, tt.want)
		}
	}
}

func TestTitle_MultiDigitPartCount(t *testing.T) {
	video, user := sampleData()
	video.PartCount = 14
	got, err := NewEngine("").Title(video, user, VideoTarget(2))
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if got != "[2023-10-09][02/14] wow" {
		t.Errorf("Title() = %q, want %q", got, "[2023-10-09][02/14] wow")
	}
}

func TestProgressIndicator(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 4, "[1/4]"},
		{4, 4, "[4/4]"},
		{2, 14, "[02/14]"},
		{14, 14, "[14/14]"},
		{3, 120, "[003/120]"},
		{1, 1, ""},
		{1, 0, ""},
	}
	for _, tt := range tests {
		if got := ProgressIndicator(tt.current, tt.total); got != tt.want {
			t.Errorf("ProgressIndicator(%d, %d) = %q, want %q", tt.current, tt.total, got, tt.want)
		}
	}
}

func TestTitle_SinglePartOmitsIndicator(t *testing.T) {
	video, user := sampleData()
	video.PartCount = 1
	got, err := NewEngine("").Title(video, user, VideoTarget(1))
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if got != "[2023-10-09] wow" {
		t.Errorf("Title() = %q, want %q", got, "[2023-10-09] wow")
	}
}

func TestDescription_DefaultTemplate(t *testing.T) {
	video, user := sampleData()
	got, err := NewEngine("").Description(video, user, PlaylistTarget())
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}

	for _, want := range []string{
		"wow",
		"2023-10-09 05:33:59 +00:00",
		"https://twitch.tv/videos/123",
		"somestreamer",
		"https://twitch.tv/somestreamer",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Description() = %q, missing %q", got, want)
		}
	}
}

func TestDescription_Override(t *testing.T) {
	video, user := sampleData()
	engine := NewEngine("parts: $$part_count$$, original: $$original_description$$end")
	got, err := engine.Description(video, user, VideoTarget(1))
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	// The original-description token always renders empty.
	if got != "parts: 4, original: end" {
		t.Errorf("Description() = %q, want %q", got, "parts: 4, original: end")
	}
}

func TestDescription_NotTruncated(t *testing.T) {
	video, user := sampleData()
	video.Name = strings.Repeat("a", 300)
	got, err := NewEngine("$$original_title$$").Description(video, user, PlaylistTarget())
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	if len(got) != 300 {
		t.Errorf("Description() length = %d, want 300 (no truncation)", len(got))
	}
}

func TestTitle_IANATimezone(t *testing.T) {
	video, user := sampleData()
	user.Timezone = "America/Los_Angeles"
	got, err := NewEngine("").Title(video, user, PlaylistTarget())
	if err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	// 05:33 UTC on Oct 9 is still Oct 8 on the US west coast.
	if got != "[2023-10-08] wow" {
		t.Errorf("Title() = %q, want %q", got, "[2023-10-08] wow")
	}
}

func TestTitle_BadInputs(t *testing.T) {
	video, user := sampleData()
	video.CreatedAt = "not-a-date"
	if _, err := NewEngine("").Title(video, user, PlaylistTarget()); err == nil {
		t.Error("Title() expected error for unparsable created_at")
	}

	video, user = sampleData()
	user.Timezone = "Not/AZone"
	if _, err := NewEngine("").Title(video, user, PlaylistTarget()); err == nil {
		t.Error("Title() expected error for unparsable timezone")
	}
}
