package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"fsd/internal/models"
	"fsd/internal/providers"
	"fsd/internal/structures"
	"io"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

const (
	maxResponseBodySize = 1 << 20 // 1 MB
	defaultFetchTimeout = 10 * time.Second
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrBadStatus       = errors.New("unexpected response status")
	ErrMalformedStatus = errors.New("malformed status response")
)

const statusQuery = `query FavoriteStatus($login: String!) {
  user(login: $login) {
    login
    displayName
    profileImageURL(width: 70)
    stream {
      title
      viewersCount
      createdAt
      game { name displayName }
    }
  }
}`

type StatusFetcherInterface interface {
	// Fetch always returns a usable entry. A non-nil error means the entry is
	// the offline fallback.
	Fetch(ctx context.Context, login string) (models.LiveEntry, error)
}

type gqlRequest struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type gqlResponse struct {
	Data struct {
		User *struct {
			Login           string `json:"login"`
			DisplayName     string `json:"displayName"`
			ProfileImageURL string `json:"profileImageURL"`
			Stream          *struct {
				Title        string     `json:"title"`
				ViewersCount int        `json:"viewersCount"`
				CreatedAt    *time.Time `json:"createdAt"`
				Game         *struct {
					Name        string `json:"name"`
					DisplayName string `json:"displayName"`
				} `json:"game"`
			} `json:"stream"`
		} `json:"user"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type GQLStatusFetcher struct {
	client        *http.Client
	endpoint      string
	clientID      string
	defaultAvatar string
	logger        providers.Logger
}

func (f *GQLStatusFetcher) Fetch(ctx context.Context, login string) (models.LiveEntry, error) {
	fallback := models.OfflineEntry(login, login, f.defaultAvatar)

	entry, err := f.query(ctx, login)
	if err != nil {
		f.logger.Warnf(providers.TypeFetch, "Status of %s unavailable: %s", login, err)
		return fallback, err
	}
	return entry, nil
}

func (f *GQLStatusFetcher) query(ctx context.Context, login string) (models.LiveEntry, error) {
	body, err := json.Marshal(gqlRequest{
		Query:     statusQuery,
		Variables: map[string]string{"login": login},
	})
	if err != nil {
		return models.LiveEntry{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.LiveEntry{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if f.clientID != "" {
		req.Header.Set("Client-Id", f.clientID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return models.LiveEntry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
		return models.LiveEntry{}, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var payload gqlResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBodySize)).Decode(&payload); err != nil {
		return models.LiveEntry{}, fmt.Errorf("%w: %v", ErrMalformedStatus, err)
	}
	if len(payload.Errors) > 0 && payload.Data.User == nil {
		return models.LiveEntry{}, fmt.Errorf("%w: %s", ErrMalformedStatus, payload.Errors[0].Message)
	}

	user := payload.Data.User
	if user == nil {
		return models.LiveEntry{}, ErrUserNotFound
	}

	entry := models.OfflineEntry(login, user.DisplayName, user.ProfileImageURL)
	if entry.AvatarURL == "" {
		entry.AvatarURL = f.defaultAvatar
	}
	if s := user.Stream; s != nil {
		entry.IsLive = true
		entry.Viewers = max(s.ViewersCount, 0)
		entry.Title = s.Title
		entry.StartedAt = s.CreatedAt
		if s.Game != nil {
			entry.Game = s.Game.DisplayName
			if entry.Game == "" {
				entry.Game = s.Game.Name
			}
		}
	}
	return entry, nil
}

func NewStatusFetcher(conf *structures.Config, logger providers.Logger) StatusFetcherInterface {
	timeout := conf.Fetcher.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	avatar := conf.Fetcher.DefaultAvatar
	if avatar == "" {
		avatar = providers.DefaultAvatarURL
	}
	return &GQLStatusFetcher{
		client:        &http.Client{Timeout: timeout},
		endpoint:      conf.Fetcher.Endpoint,
		clientID:      conf.Fetcher.ClientID,
		defaultAvatar: avatar,
		logger:        logger,
	}
}

type FetchResult struct {
	Entry models.LiveEntry
	Err   error
}

// FetchAll queries every login in parallel and waits for all of them. Each
// fetch is contained on its own: errors and panics become per-login results
// and never cancel siblings.
func FetchAll(ctx context.Context, fetcher StatusFetcherInterface, logins []string) map[string]FetchResult {
	results := make(map[string]FetchResult, len(logins))
	var mu sync.Mutex
	var g errgroup.Group

	for _, login := range logins {
		login := login
		g.Go(func() error {
			res := fetchOne(ctx, fetcher, login)
			mu.Lock()
			results[login] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func fetchOne(ctx context.Context, fetcher StatusFetcherInterface, login string) (res FetchResult) {
	defer func() {
		if r := recover(); r != nil {
			res = FetchResult{Err: fmt.Errorf("status fetch for %s panicked: %v", login, r)}
		}
	}()
	entry, err := fetcher.Fetch(ctx, login)
	return FetchResult{Entry: entry, Err: err}
}
