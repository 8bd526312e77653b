package account

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vodbackup/uploader/internal/config"
	"github.com/vodbackup/uploader/pkg/models"
)

const testSecrets = `{
  "installed": {
    "client_id": "test-client-id.apps.googleusercontent.com",
    "client_secret": "test-secret",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

const testToken = `{"access_token":"at","refresh_token":"rt","token_type":"Bearer"}`

func testPlatformConfig(t *testing.T) *config.PlatformConfig {
	t.Helper()
	dir := t.TempDir()
	secretsPath := filepath.Join(dir, "secrets.json")
	if err := os.WriteFile(secretsPath, []byte(testSecrets), 0600); err != nil {
		t.Fatalf("failed to write secrets: %v", err)
	}
	return &config.PlatformConfig{
		ClientSecretsPath: secretsPath,
		TokenCacheDir:     dir,
	}
}

func writeToken(t *testing.T, dir, account string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, account+".json"), []byte(testToken), 0600); err != nil {
		t.Fatalf("failed to write token: %v", err)
	}
}

func TestNewRegistry_UserWithToken(t *testing.T) {
	cfg := testPlatformConfig(t)
	writeToken(t, cfg.TokenCacheDir, "streamer-a")

	users := []models.User{{ID: 1, AccountID: "streamer-a"}}
	reg, err := NewRegistry(context.Background(), cfg, users, slog.Default())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if _, err := reg.ClientFor(1); err != nil {
		t.Errorf("ClientFor(1) error = %v, want client", err)
	}
}

func TestNewRegistry_MissingTokenIsNotStartupFailure(t *testing.T) {
	cfg := testPlatformConfig(t)

	users := []models.User{{ID: 1, AccountID: "no-token-here"}}
	reg, err := NewRegistry(context.Background(), cfg, users, slog.Default())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v, want nil (miss surfaces per video)", err)
	}

	_, err = reg.ClientFor(1)
	if !errors.Is(err, models.ErrNoClient) {
		t.Errorf("ClientFor(1) error = %v, want ErrNoClient", err)
	}
}

func TestNewRegistry_FallbackWhenNoUsers(t *testing.T) {
	cfg := testPlatformConfig(t)
	writeToken(t, cfg.TokenCacheDir, "unknown")

	reg, err := NewRegistry(context.Background(), cfg, nil, slog.Default())
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if reg.Size() != 1 {
		t.Fatalf("Size() = %d, want exactly one fallback client", reg.Size())
	}
	if _, err := reg.ClientFor(FallbackID); err != nil {
		t.Errorf("ClientFor(FallbackID) error = %v, want fallback client", err)
	}
}

func TestNewRegistry_BadSecretsFails(t *testing.T) {
	dir := t.TempDir()
	secretsPath := filepath.Join(dir, "secrets.json")
	if err := os.WriteFile(secretsPath, []byte("not json"), 0600); err != nil {
		t.Fatalf("failed to write secrets: %v", err)
	}
	cfg := &config.PlatformConfig{ClientSecretsPath: secretsPath, TokenCacheDir: dir}

	if _, err := NewRegistry(context.Background(), cfg, nil, slog.Default()); err == nil {
		t.Error("NewRegistry() expected error for unparsable client secrets")
	}
}

func TestLoadToken_EmptyCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(path, []byte(`{"token_type":"Bearer"}`), 0600); err != nil {
		t.Fatalf("failed to write token: %v", err)
	}

	if _, err := loadToken(path); err == nil {
		t.Error("loadToken() expected error for token without credentials")
	}
}
