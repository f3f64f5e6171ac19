// Package strava is a minimal client for the pieces of the Strava v3 API
// this service uses: token refresh, activity listing in a time window,
// and activity updates.
package strava

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/clock"
	"github.com/isaacgw/parkrun-sync/internal/config"
)

// AccountSession carries one account's identity and live tokens through
// the call chain. It is a value: refresh returns a new session instead of
// mutating shared state.
type AccountSession struct {
	RunnerID     string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// Activity is the subset of a Strava activity the service reads.
type Activity struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Distance    float64 `json:"distance"`
	StartDate   string  `json:"start_date"`
	Description string  `json:"description"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// Client talks to the Strava API on behalf of one or more sessions.
type Client struct {
	http   *resty.Client
	cfg    config.StravaConfig
	clock  clock.Clock
	logger *zap.Logger
}

// NewClient builds a Client from the Strava configuration.
func NewClient(cfg config.StravaConfig, clk clock.Clock, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
	return &Client{http: httpClient, cfg: cfg, clock: clk, logger: logger}
}

// EnsureValidToken refreshes the session's tokens when expired. On
// refresh failure it logs and returns the stale session unchanged, so
// the subsequent API calls fail visibly instead of the whole account
// aborting here.
// TODO: surface refresh failure to the orchestrator so the account can
// be marked unhealthy instead of burning an API call on a dead token.
func (c *Client) EnsureValidToken(ctx context.Context, s AccountSession) AccountSession {
	if s.ExpiresAt > 0 && c.clock.Now().Unix() < s.ExpiresAt {
		return s
	}

	c.logger.Info("Token expired or not present, refreshing",
		zap.String("runner_id", s.RunnerID))
	refreshed, err := c.refresh(ctx, s)
	if err != nil {
		c.logger.Error("Failed to refresh access token",
			zap.String("runner_id", s.RunnerID), zap.Error(err))
		return s
	}
	return refreshed
}

func (c *Client) refresh(ctx context.Context, s AccountSession) (AccountSession, error) {
	var tokens tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id":     s.ClientID,
			"client_secret": s.ClientSecret,
			"refresh_token": s.RefreshToken,
			"grant_type":    "refresh_token",
		}).
		SetResult(&tokens).
		Post("/oauth/token")
	if err != nil {
		return AccountSession{}, fmt.Errorf("refresh token request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return AccountSession{}, fmt.Errorf("refresh token: status %d: %s", resp.StatusCode(), resp.String())
	}

	// Access, refresh and expiry replace each other atomically.
	s.AccessToken = tokens.AccessToken
	s.RefreshToken = tokens.RefreshToken
	s.ExpiresAt = tokens.ExpiresAt
	return s, nil
}

// MatchingActivities lists today's activities inside the configured hour
// window and filters them to the configured distance band. A non-200
// response is logged and yields an empty list — "nothing to do", not an
// error.
func (c *Client) MatchingActivities(ctx context.Context, accessToken string) ([]Activity, error) {
	after, before := c.window()

	var activities []Activity
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParams(map[string]string{
			"after":    strconv.FormatInt(after, 10),
			"before":   strconv.FormatInt(before, 10),
			"page":     "1",
			"per_page": "100",
		}).
		SetResult(&activities).
		Get("/api/v3/athlete/activities")
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn("Error fetching activities",
			zap.Int("status", resp.StatusCode()), zap.String("body", resp.String()))
		return nil, nil
	}

	var matched []Activity
	for _, a := range activities {
		start, err := time.Parse(time.RFC3339, a.StartDate)
		if err != nil {
			continue
		}
		ts := start.Unix()
		if ts < after || ts > before {
			continue
		}
		if a.Distance < c.cfg.LowerDistanceLimit || a.Distance > c.cfg.UpperDistanceLimit {
			continue
		}
		matched = append(matched, a)
	}
	return matched, nil
}

// GetActivity fetches one activity. A non-200 response is logged and
// yields a zero Activity.
func (c *Client) GetActivity(ctx context.Context, accessToken string, id int64) (Activity, error) {
	var activity Activity
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&activity).
		Get(fmt.Sprintf("/api/v3/activities/%d", id))
	if err != nil {
		return Activity{}, fmt.Errorf("get activity %d: %w", id, err)
	}
	if resp.StatusCode() != 200 {
		c.logger.Warn("Error fetching activity",
			zap.Int64("activity_id", id), zap.Int("status", resp.StatusCode()))
		return Activity{}, nil
	}
	return activity, nil
}

// UpdateActivity replaces the activity's name and description. Unlike
// the read paths, a failed update is an error: it aborts the account so
// the completion is not logged and the run can retry later in the day.
func (c *Client) UpdateActivity(ctx context.Context, accessToken string, id int64, name, description string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]string{
			"name":        name,
			"description": description,
		}).
		Put(fmt.Sprintf("/api/v3/activities/%d", id))
	if err != nil {
		return fmt.Errorf("update activity %d: %w", id, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("update activity %d: status %d: %s", id, resp.StatusCode(), resp.String())
	}
	return nil
}

// window returns the unix bounds of today's matching window in UTC.
func (c *Client) window() (after, before int64) {
	now := c.clock.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), c.cfg.HourLowerBound, 0, 0, 0, now.Location())
	end := time.Date(now.Year(), now.Month(), now.Day(), c.cfg.HourUpperBound, 0, 0, 0, now.Location())
	return start.UTC().Unix(), end.UTC().Unix()
}
