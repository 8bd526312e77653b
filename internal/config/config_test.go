package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set required env vars for test
	os.Setenv("DOWNLOAD_ROOT", "/var/vods")
	os.Setenv("DYNAMODB_TABLE", "test-table")
	os.Setenv("CLIENT_SECRETS_PATH", "/etc/uploader/secrets.json")
	os.Setenv("TOKEN_CACHE_DIR", "/var/uploader/tokens")
	defer func() {
		os.Unsetenv("DOWNLOAD_ROOT")
		os.Unsetenv("DYNAMODB_TABLE")
		os.Unsetenv("CLIENT_SECRETS_PATH")
		os.Unsetenv("TOKEN_CACHE_DIR")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Uploader.DownloadRoot != "/var/vods" {
		t.Errorf("DownloadRoot = %v, want %v", cfg.Uploader.DownloadRoot, "/var/vods")
	}
	if cfg.AWS.DynamoDBTable != "test-table" {
		t.Errorf("DynamoDBTable = %v, want %v", cfg.AWS.DynamoDBTable, "test-table")
	}
	if cfg.Uploader.MaxVideosPerRun != DefaultMaxVideosPerRun {
		t.Errorf("MaxVideosPerRun = %v, want default %v", cfg.Uploader.MaxVideosPerRun, DefaultMaxVideosPerRun)
	}
}

func TestLoad_RunInterval(t *testing.T) {
	os.Setenv("DOWNLOAD_ROOT", "/var/vods")
	os.Setenv("DYNAMODB_TABLE", "test-table")
	os.Setenv("CLIENT_SECRETS_PATH", "/etc/uploader/secrets.json")
	os.Setenv("TOKEN_CACHE_DIR", "/var/uploader/tokens")
	os.Setenv("RUN_INTERVAL", "15m")
	defer func() {
		os.Unsetenv("DOWNLOAD_ROOT")
		os.Unsetenv("DYNAMODB_TABLE")
		os.Unsetenv("CLIENT_SECRETS_PATH")
		os.Unsetenv("TOKEN_CACHE_DIR")
		os.Unsetenv("RUN_INTERVAL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Uploader.RunInterval != 15*time.Minute {
		t.Errorf("RunInterval = %v, want 15m", cfg.Uploader.RunInterval)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{
		Environment: "dev",
		Uploader:    UploaderConfig{MaxVideosPerRun: 10},
	}

	err := cfg.Validate()
	if err == nil {
		t.Error("Validate() expected error for missing required fields")
	}
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := &Config{
		Environment: "dev",
		AWS: AWSConfig{
			DynamoDBTable: "table",
		},
		Uploader: UploaderConfig{
			DownloadRoot:    "/var/vods",
			MaxVideosPerRun: 10,
		},
		Platform: PlatformConfig{
			ClientSecretsPath: "/etc/uploader/secrets.json",
			TokenCacheDir:     "/var/uploader/tokens",
		},
	}

	err := cfg.Validate()
	if err != nil {
		t.Errorf("Validate() unexpected error = %v", err)
	}
}

func TestOptionalFeatures(t *testing.T) {
	cfg := &Config{}
	if cfg.ArchiveEnabled() {
		t.Error("ArchiveEnabled() = true with no bucket configured")
	}
	if cfg.EventsEnabled() {
		t.Error("EventsEnabled() = true with no queue configured")
	}

	cfg.AWS.ArchiveBucket = "vod-archive"
	cfg.AWS.EventsQueue = "https://sqs.test/uploads"
	if !cfg.ArchiveEnabled() {
		t.Error("ArchiveEnabled() = false with bucket configured")
	}
	if !cfg.EventsEnabled() {
		t.Error("EventsEnabled() = false with queue configured")
	}
}
