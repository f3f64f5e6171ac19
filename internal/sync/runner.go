// Package sync orchestrates one pass over all registered accounts:
// gate check, ledger check, profile and results scraping, narrative
// composition, and the Strava activity update.
package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/clock"
	"github.com/isaacgw/parkrun-sync/internal/compose"
	"github.com/isaacgw/parkrun-sync/internal/config"
	"github.com/isaacgw/parkrun-sync/internal/creds"
	"github.com/isaacgw/parkrun-sync/internal/gate"
	"github.com/isaacgw/parkrun-sync/internal/ledger"
	"github.com/isaacgw/parkrun-sync/internal/metrics"
	"github.com/isaacgw/parkrun-sync/internal/notify"
	"github.com/isaacgw/parkrun-sync/internal/scrape"
	"github.com/isaacgw/parkrun-sync/internal/storage"
	"github.com/isaacgw/parkrun-sync/internal/strava"
)

const siteBaseURL = "https://www.parkrun.org.uk"

// PageFetcher retrieves one page of site HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// StravaAPI is the slice of the Strava client the orchestrator uses.
type StravaAPI interface {
	EnsureValidToken(ctx context.Context, s strava.AccountSession) strava.AccountSession
	MatchingActivities(ctx context.Context, accessToken string) ([]strava.Activity, error)
	GetActivity(ctx context.Context, accessToken string, id int64) (strava.Activity, error)
	UpdateActivity(ctx context.Context, accessToken string, id int64, name, description string) error
}

// Runner executes sync passes. Accounts are processed sequentially: the
// load is a handful of runners, and the page fetches are proxied through
// a rate-limited service anyway.
type Runner struct {
	cfg      *config.Config
	store    storage.Provider
	fetcher  PageFetcher
	ledger   *ledger.Ledger
	creds    *creds.Store
	strava   StravaAPI
	notifier notify.Publisher
	clock    clock.Clock
	logger   *zap.Logger

	extraDates map[string]struct{}
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(
	cfg *config.Config,
	store storage.Provider,
	fetcher PageFetcher,
	ldg *ledger.Ledger,
	credStore *creds.Store,
	stravaAPI StravaAPI,
	notifier notify.Publisher,
	clk clock.Clock,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		store:      store,
		fetcher:    fetcher,
		ledger:     ldg,
		creds:      credStore,
		strava:     stravaAPI,
		notifier:   notifier,
		clock:      clk,
		logger:     logger,
		extraDates: cfg.ExtraDates(),
	}
}

// Run performs one full pass: sweep stale cached pages, then process
// every registered account. A failing account is logged and skipped; it
// never aborts the others. Refreshed tokens are persisted at the end of
// the pass.
func (r *Runner) Run(ctx context.Context) error {
	now := r.clock.Now()

	removed, err := storage.SweepOldPages(ctx, r.store, r.logger, now, r.cfg.Retention.Days)
	if err != nil {
		// The sweep is housekeeping; a failed sweep must not block the pass.
		r.logger.Warn("Cached-page sweep failed", zap.Error(err))
	}
	metrics.ObserveSweep(removed)

	file, err := r.creds.Load(ctx)
	if err != nil {
		return fmt.Errorf("load account credentials: %w", err)
	}

	changed := false
	for i := range file.Accounts {
		account := file.Accounts[i]
		session, err := r.processAccount(ctx, sessionFrom(account))
		if err != nil {
			r.logger.Error("Account sync failed",
				zap.String("runner_id", account.RunnerID),
				zap.Error(err))
			metrics.ObserveSkip("error")
		}
		if session.AccessToken != account.AccessToken || session.RefreshToken != account.RefreshToken {
			file.Accounts[i].AccessToken = session.AccessToken
			file.Accounts[i].RefreshToken = session.RefreshToken
			file.Accounts[i].ExpiresAt = session.ExpiresAt
			changed = true
		}
	}

	if changed {
		if err := r.creds.Save(ctx, file); err != nil {
			return fmt.Errorf("save refreshed credentials: %w", err)
		}
	}
	return nil
}

// processAccount runs the pipeline for one account. It returns the
// session (possibly with refreshed tokens) so Run can persist it, and
// an error when the pipeline aborted partway.
func (r *Runner) processAccount(ctx context.Context, session strava.AccountSession) (strava.AccountSession, error) {
	now := r.clock.Now()
	log := r.logger.With(zap.String("runner_id", session.RunnerID))

	if !gate.ShouldRun(now, r.extraDates) {
		log.Debug("Outside the run window, skipping")
		metrics.ObserveSkip("gate")
		return session, nil
	}

	if r.ledger.CompletedToday(ctx, session.RunnerID, now) {
		log.Debug("Already completed today, skipping")
		metrics.ObserveSkip("ledger")
		return session, nil
	}

	snap, err := r.fetchSnapshot(ctx, session.RunnerID)
	if err != nil {
		return session, err
	}

	if snap.RecentDate == nil || snap.RecentDate.Format(gate.DateKey) != now.Format(gate.DateKey) {
		log.Info("Most recent parkrun is not from today, skipping")
		metrics.ObserveSkip("not_today")
		return session, nil
	}

	rec, err := r.fetchResult(ctx, session.RunnerID, snap)
	if err != nil {
		return session, err
	}

	title, description := compose.Narrative(snap, rec)

	session = r.strava.EnsureValidToken(ctx, session)

	activities, err := r.strava.MatchingActivities(ctx, session.AccessToken)
	if err != nil {
		return session, fmt.Errorf("list activities: %w", err)
	}
	if len(activities) != 1 {
		// Zero matches means the runner has not uploaded yet; more than
		// one means we cannot tell which is the parkrun. Either way the
		// next pass will retry because the ledger stays untouched.
		log.Info("Did not find exactly one matching activity",
			zap.Int("matches", len(activities)))
		if len(activities) == 0 {
			metrics.ObservePublish("no_match")
		} else {
			metrics.ObservePublish("multi_match")
		}
		return session, nil
	}

	activity, err := r.strava.GetActivity(ctx, session.AccessToken, activities[0].ID)
	if err != nil {
		return session, fmt.Errorf("get activity %d: %w", activities[0].ID, err)
	}

	merged := compose.MergeDescription(activity.Description, description)
	if err := r.strava.UpdateActivity(ctx, session.AccessToken, activity.ID, title, merged); err != nil {
		metrics.ObservePublish("update_failed")
		return session, fmt.Errorf("update activity %d: %w", activity.ID, err)
	}

	if err := r.ledger.LogCompletion(ctx, session.RunnerID, now); err != nil {
		return session, fmt.Errorf("record completion: %w", err)
	}

	event := notify.Event{
		RunnerID:   session.RunnerID,
		Date:       now.Format(gate.DateKey),
		ActivityID: activity.ID,
		Title:      title,
	}
	if err := r.notifier.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish completion event", zap.Error(err))
	}

	metrics.ObservePublish("published")
	log.Info("Activity updated", zap.Int64("activity_id", activity.ID), zap.String("title", title))
	return session, nil
}

// fetchSnapshot downloads and parses the runner's profile page. The raw
// page is cached so a later pass within the retention window can be
// inspected without re-fetching.
func (r *Runner) fetchSnapshot(ctx context.Context, runnerID string) (scrape.RunnerSnapshot, error) {
	pageURL := fmt.Sprintf("%s/parkrunner/%s/", siteBaseURL, runnerID)
	body, err := r.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return scrape.RunnerSnapshot{}, fmt.Errorf("fetch profile page: %w", err)
	}

	object := fmt.Sprintf("runner_%s.html", runnerID)
	if err := r.store.Put(ctx, object, body); err != nil {
		return scrape.RunnerSnapshot{}, fmt.Errorf("cache profile page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scrape.RunnerSnapshot{}, fmt.Errorf("parse profile page: %w", err)
	}
	return scrape.ExtractSnapshot(doc)
}

// fetchResult loads the runner's most recent results page, cache-first,
// and extracts the runner's row from it.
func (r *Runner) fetchResult(ctx context.Context, runnerID string, snap scrape.RunnerSnapshot) (scrape.ResultRecord, error) {
	if snap.RecentResultsLink == nil {
		return scrape.ResultRecord{}, errors.New("profile has a recent date but no results link")
	}

	object, err := resultsObjectName(*snap.RecentResultsLink)
	if err != nil {
		return scrape.ResultRecord{}, err
	}

	body, err := r.store.Get(ctx, object)
	if errors.Is(err, storage.ErrNotFound) {
		pageURL := *snap.RecentResultsLink
		if strings.HasPrefix(pageURL, "/") {
			pageURL = siteBaseURL + pageURL
		}
		body, err = r.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return scrape.ResultRecord{}, fmt.Errorf("fetch results page: %w", err)
		}
		if err := r.store.Put(ctx, object, body); err != nil {
			return scrape.ResultRecord{}, fmt.Errorf("cache results page: %w", err)
		}
	} else if err != nil {
		return scrape.ResultRecord{}, fmt.Errorf("read cached results page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return scrape.ResultRecord{}, fmt.Errorf("parse results page: %w", err)
	}
	return scrape.ExtractResult(doc, runnerID, snap.Gender)
}

// resultsObjectName derives the cache key for a results page from its
// link, e.g. ".../bushy/results/935" becomes "parkruns_bushy_935.html".
func resultsObjectName(link string) (string, error) {
	parts := strings.Split(strings.TrimSuffix(link, "/"), "/")
	if len(parts) < 3 {
		return "", fmt.Errorf("unexpected results link %q", link)
	}
	location := parts[len(parts)-3]
	number := parts[len(parts)-1]
	return fmt.Sprintf("parkruns_%s_%s.html", location, number), nil
}

func sessionFrom(a creds.Account) strava.AccountSession {
	return strava.AccountSession{
		RunnerID:     a.RunnerID,
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		AccessToken:  a.AccessToken,
		RefreshToken: a.RefreshToken,
		ExpiresAt:    a.ExpiresAt,
	}
}
