package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"daycaresync/pkg/auth"
	"daycaresync/pkg/config"
	"daycaresync/pkg/errors"
	"daycaresync/pkg/logger"
	"daycaresync/pkg/media"
	"daycaresync/pkg/procare"
	"daycaresync/pkg/ratelimit"
	"daycaresync/pkg/retry"
	"daycaresync/pkg/ui"
)

// ItemFailure records a media item that could not be downloaded
type ItemFailure struct {
	Name string
	URL  string
	Err  error
}

// Summary reports what a run accomplished
type Summary struct {
	Children   int
	Records    int
	MediaItems int
	Downloaded int
	Skipped    int
	Failures   []ItemFailure
	LogPath    string
}

// Scraper coordinates fetching the activity feed and downloading its media
type Scraper struct {
	client ProviderClient
	writer MediaWriter
	config *config.Config
	logger logger.Logger
}

// New creates a scraper from pre-built collaborators
func New(cfg *config.Config, client ProviderClient, writer MediaWriter, log logger.Logger) *Scraper {
	return &Scraper{
		client: client,
		writer: writer,
		config: cfg,
		logger: log,
	}
}

// Build wires a scraper from configuration: resolves the auth token,
// then constructs the API client and the media writer.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Scraper, error) {
	acquirer := auth.NewBrowserAcquirer(cfg.Procare.LoginURL, cfg.Browser, log)
	var store auth.TokenStore
	if chain, err := auth.NewStoreChain(); err == nil {
		store = chain
	}
	token, err := ResolveToken(ctx, cfg, acquirer, store, log)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewTokenBucket(cfg.Fetch.RequestsPerMinute, time.Minute)
	client := procare.NewClient(procare.Options{
		BaseURL:   cfg.Procare.BaseURL,
		Token:     token,
		UserAgent: cfg.Procare.UserAgent,
		Timeout:   cfg.Fetch.Timeout,
		Limiter:   limiter,
		Logger:    log,
	})

	writer, err := media.NewWriter(client, cfg.Download.MediaDir, cfg.Download.Tags, log)
	if err != nil {
		return nil, err
	}

	return New(cfg, client, writer, log), nil
}

// ResolveToken returns a usable bearer token, preferring cached ones.
// Order: credentials file, token store, then a fresh browser login.
// A freshly acquired token is persisted back to both places. A nil store
// skips the cached-token store on both the read and the write side.
func ResolveToken(ctx context.Context, cfg *config.Config, acquirer auth.TokenAcquirer, store auth.TokenStore, log logger.Logger) (string, error) {
	creds, err := auth.LoadCredentials(cfg.Procare.CredentialsFile)
	if err != nil {
		return "", err
	}
	account := creds.Daycare

	if account.AuthToken != "" {
		log.Debug("Using auth token from credentials file")
		return account.AuthToken, nil
	}

	if store != nil {
		if token, err := store.RetrieveToken(account.Username); err == nil && token != "" {
			log.Debug("Using auth token from token store")
			return token, nil
		}
	}

	if account.Username == "" || account.Password == "" {
		return "", auth.ErrInvalidAccount
	}

	log.InfoWithFields("Logging in through browser", map[string]interface{}{
		"username": account.Username,
	})
	token, err := acquirer.AcquireToken(ctx, account.Username, account.Password)
	if err != nil {
		return "", err
	}

	if store != nil {
		if err := store.StoreToken(account.Username, token); err != nil {
			log.WithError(err).Warn("Could not cache auth token in token store")
		}
	}
	creds.Daycare.AuthToken = token
	if err := creds.Save(cfg.Procare.CredentialsFile); err != nil {
		log.WithError(err).Warn("Could not write auth token back to credentials file")
	}

	return token, nil
}

// Run fetches the activity feed for every child, writes the activity log
// artifact, and downloads each media item. Individual download failures do
// not abort the run unless ContinueOnError is off.
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	dateFrom := s.config.Fetch.DateFrom
	dateTo := s.config.EffectiveDateTo()
	summary := &Summary{}

	kids, err := s.client.ListChildren(ctx)
	if err != nil {
		return summary, err
	}
	summary.Children = len(kids)
	s.logger.InfoWithFields("Found children", map[string]interface{}{
		"count": len(kids),
	})

	var records []procare.Activity
	for _, kid := range kids {
		s.logger.InfoWithFields("Fetching activities", map[string]interface{}{
			"kid_id": kid.ID,
			"from":   dateFrom,
			"to":     dateTo,
		})
		activities, err := s.client.FetchActivities(ctx, kid.ID, dateFrom, dateTo)
		if err != nil {
			return summary, err
		}
		records = append(records, activities...)
	}
	summary.Records = len(records)

	if s.config.Fetch.LogDir != "" {
		logPath, err := s.writeActivityLog(records, dateFrom, dateTo)
		if err != nil {
			return summary, err
		}
		summary.LogPath = logPath
		s.logger.InfoWithFields("Wrote activity log", map[string]interface{}{
			"path": logPath,
		})
	}

	items, err := procare.MediaActivities(records)
	if err != nil {
		return summary, err
	}
	items = s.filterItems(items, summary)
	summary.MediaItems = len(items)

	if len(items) == 0 {
		s.logger.Info("No media to download")
		return summary, nil
	}

	progress := ui.NewProgress(len(items))
	retryCfg := s.retryConfig(ctx)

	for _, item := range items {
		path, err := s.downloadItem(ctx, item, retryCfg)
		if err != nil {
			name := displayName(item)
			if !s.config.Download.ContinueOnError {
				return summary, err
			}
			summary.Failures = append(summary.Failures, ItemFailure{
				Name: name,
				URL:  item.SourceURL(),
				Err:  err,
			})
			s.logger.ErrorWithFields("Media download failed", map[string]interface{}{
				"name":  name,
				"error": err.Error(),
			})
			progress.Fail(name)
			continue
		}
		summary.Downloaded++
		progress.Advance(filepath.Base(path))
	}
	progress.Finish()

	if summary.Downloaded == 0 {
		return summary, errors.New(errors.ErrorTypeMediaWrite,
			"all %d media downloads failed", len(items))
	}
	return summary, nil
}

func (s *Scraper) downloadItem(ctx context.Context, item procare.Media, retryCfg *retry.Config) (string, error) {
	var path string
	err := retry.Do(func() error {
		var werr error
		path, werr = s.writer.Write(ctx, item)
		return werr
	}, retryCfg)
	return path, err
}

func (s *Scraper) filterItems(items []procare.Media, summary *Summary) []procare.Media {
	if !s.config.Download.SkipPhotos && !s.config.Download.SkipVideos {
		return items
	}
	kept := items[:0:0]
	for _, item := range items {
		if item.IsVideo && s.config.Download.SkipVideos {
			summary.Skipped++
			continue
		}
		if !item.IsVideo && s.config.Download.SkipPhotos {
			summary.Skipped++
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func (s *Scraper) retryConfig(ctx context.Context) *retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Context = ctx
	cfg.Logger = s.logger
	if s.config.Download.MaxRetries > 0 {
		cfg.MaxAttempts = s.config.Download.MaxRetries
	}
	if s.config.Download.RetryDelay > 0 {
		backoff := retry.DefaultExponentialBackoff()
		backoff.BaseDelay = s.config.Download.RetryDelay
		cfg.Backoff = backoff
	}
	return cfg
}

// writeActivityLog dumps the raw activity records as indented JSON so a run
// leaves an inspectable record of everything the feed returned.
func (s *Scraper) writeActivityLog(records []procare.Activity, dateFrom, dateTo string) (string, error) {
	if err := os.MkdirAll(s.config.Fetch.LogDir, 0o755); err != nil {
		return "", errors.New(errors.ErrorTypeMediaWrite,
			"failed to create log directory %s: %v", s.config.Fetch.LogDir, err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", errors.New(errors.ErrorTypeParsing,
			"failed to encode activity log: %v", err)
	}

	name := fmt.Sprintf("procare_activity_logs_%s_%s.json", dateFrom, dateTo)
	path := filepath.Join(s.config.Fetch.LogDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.New(errors.ErrorTypeMediaWrite,
			"failed to write activity log %s: %v", path, err)
	}
	return path, nil
}

func displayName(item procare.Media) string {
	if name, err := media.Filename(item.Date, item.IsVideo); err == nil {
		return name
	}
	url := item.SourceURL()
	if idx := strings.LastIndex(url, "/"); idx >= 0 && idx < len(url)-1 {
		url = url[idx+1:]
	}
	if idx := strings.Index(url, "?"); idx > 0 {
		url = url[:idx]
	}
	return url
}
