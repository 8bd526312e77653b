// Package account builds and holds one authorized platform client per user.
package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/vodbackup/uploader/internal/config"
	"github.com/vodbackup/uploader/internal/platform"
	"github.com/vodbackup/uploader/pkg/models"
)

// FallbackID keys the single default client registered when no users are
// configured.
const FallbackID int64 = -1

const fallbackAccount = "unknown"

// Scopes requested for every account client.
var Scopes = []string{
	youtube.YoutubeUploadScope,
	youtube.YoutubeReadonlyScope,
	youtube.YoutubeScope,
}

// Registry maps an owning-user id to an authorized platform client. Built
// once at startup; lookups are read-only after that.
type Registry struct {
	clients map[int64]platform.Client
	log     *slog.Logger
}

// NewRegistry builds a client for every user whose cached token can be
// loaded. A user without a usable token is registered as a miss: the error
// surfaces on the first upload attempt for that user, not at startup. When
// no users exist at all, one fallback client is built under FallbackID.
func NewRegistry(ctx context.Context, cfg *config.PlatformConfig, users []models.User, log *slog.Logger) (*Registry, error) {
	secrets, err := os.ReadFile(cfg.ClientSecretsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(secrets, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets: %w", err)
	}

	r := &Registry{
		clients: make(map[int64]platform.Client),
		log:     log,
	}

	for _, user := range users {
		account := user.AccountID
		if account == "" {
			account = strconv.FormatInt(user.ID, 10)
		}
		client, err := r.buildClient(ctx, oauthCfg, cfg.TokenCacheDir, account)
		if err != nil {
			log.Warn("No authorized client for user; their videos will fail until a token is provisioned",
				"userId", user.ID,
				"account", account,
				"error", err,
			)
			continue
		}
		r.clients[user.ID] = client
	}

	if len(users) == 0 {
		client, err := r.buildClient(ctx, oauthCfg, cfg.TokenCacheDir, fallbackAccount)
		if err != nil {
			log.Warn("No users configured and no fallback token available", "error", err)
		} else {
			r.clients[FallbackID] = client
		}
	}

	return r, nil
}

// ClientFor returns the authorized client of a user. A miss is a hard
// per-video error for the caller.
func (r *Registry) ClientFor(userID int64) (platform.Client, error) {
	client, ok := r.clients[userID]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", models.ErrNoClient, userID)
	}
	return client, nil
}

// Size returns the number of registered clients.
func (r *Registry) Size() int {
	return len(r.clients)
}

func (r *Registry) buildClient(ctx context.Context, oauthCfg *oauth2.Config, tokenDir, account string) (platform.Client, error) {
	token, err := loadToken(filepath.Join(tokenDir, account+".json"))
	if err != nil {
		return nil, err
	}

	// The token source refreshes expired access tokens with the cached
	// refresh token; the interactive consent flow lives outside this
	// process and only its persisted result is consumed here.
	service, err := youtube.NewService(ctx, option.WithTokenSource(oauthCfg.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create platform service: %w", err)
	}

	return platform.NewYouTube(service, r.log), nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached token: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse cached token %s: %w", path, err)
	}
	if token.RefreshToken == "" && token.AccessToken == "" {
		return nil, fmt.Errorf("cached token %s holds no credentials", path)
	}
	return &token, nil
}
