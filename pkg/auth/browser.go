package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"daycaresync/pkg/config"
	"daycaresync/pkg/errors"
	"daycaresync/pkg/logger"
)

// DOM identifiers on the provider login page and the localStorage key its
// frontend persists the session under.
const (
	emailFieldSelector    = "#email"
	passwordFieldSelector = "#password"
	submitButtonSelector  = ".auth__submit-button"
	sessionStorageKey     = "persist:kinderlime"
)

// sessionEnvelope is the outer localStorage value. The currentUser field is
// itself a JSON-encoded string (nested serialization by the frontend's state
// persistence layer).
type sessionEnvelope struct {
	CurrentUser string `json:"currentUser"`
}

type currentUser struct {
	Data struct {
		AuthToken string `json:"auth_token"`
	} `json:"data"`
}

// BrowserAcquirer drives a headless Chrome session through the provider's
// login form and extracts the bearer token from browser local storage. The
// browser contexts are torn down on every exit path, including failure.
type BrowserAcquirer struct {
	loginURL string
	cfg      config.BrowserConfig
	logger   logger.Logger
}

// NewBrowserAcquirer creates a browser-driven token acquirer
func NewBrowserAcquirer(loginURL string, cfg config.BrowserConfig, log logger.Logger) *BrowserAcquirer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &BrowserAcquirer{
		loginURL: loginURL,
		cfg:      cfg,
		logger:   log,
	}
}

// AcquireToken logs into the provider and extracts the bearer token.
// Instead of a fixed settle delay after submitting the form, it polls the
// storage key with a bounded timeout and fails with an auth error on expiry.
func (a *BrowserAcquirer) AcquireToken(ctx context.Context, username, password string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", a.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	ctx, cancelTimeout := context.WithTimeout(ctx, a.cfg.LoginTimeout)
	defer cancelTimeout()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)
	defer cancelPage()

	a.logger.InfoWithFields("starting browser login", map[string]interface{}{
		"login_url": a.loginURL,
		"headless":  a.cfg.Headless,
	})

	err := chromedp.Run(pageCtx,
		chromedp.Navigate(a.loginURL),
		chromedp.WaitVisible(emailFieldSelector, chromedp.ByQuery),
		chromedp.SendKeys(emailFieldSelector, username, chromedp.ByQuery),
		chromedp.SendKeys(passwordFieldSelector, password, chromedp.ByQuery),
		chromedp.Click(submitButtonSelector, chromedp.ByQuery),
	)
	if err != nil {
		return "", errors.New(errors.ErrorTypeAuth, "login form submission failed: %v", err)
	}

	token, err := a.waitForToken(pageCtx)
	if err != nil {
		return "", err
	}

	a.logger.Info("bearer token extracted from browser session")
	return token, nil
}

// waitForToken polls local storage until the session object appears and
// carries a token, or the settle timeout expires.
func (a *BrowserAcquirer) waitForToken(pageCtx context.Context) (string, error) {
	script := fmt.Sprintf("window.localStorage.getItem(%q) || \"\"", sessionStorageKey)
	deadline := time.Now().Add(a.cfg.SettleTimeout)

	for {
		var raw string
		if err := chromedp.Run(pageCtx, chromedp.Evaluate(script, &raw)); err != nil {
			return "", errors.New(errors.ErrorTypeAuth, "failed to read browser storage: %v", err)
		}

		if raw != "" {
			token, err := ParseSessionToken(raw)
			if err == nil {
				return token, nil
			}
			a.logger.WithError(err).Debug("session object present but not yet complete")
		}

		if time.Now().After(deadline) {
			return "", errors.New(errors.ErrorTypeAuth,
				"session storage key %q did not yield a token within %s", sessionStorageKey, a.cfg.SettleTimeout)
		}

		select {
		case <-pageCtx.Done():
			return "", errors.New(errors.ErrorTypeAuth, "browser session ended: %v", pageCtx.Err())
		case <-time.After(a.cfg.PollInterval):
		}
	}
}

// ParseSessionToken extracts the bearer token from the raw localStorage
// session value (JSON whose currentUser field is nested JSON).
func ParseSessionToken(raw string) (string, error) {
	var envelope sessionEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return "", errors.New(errors.ErrorTypeAuth, "malformed session object: %v", err)
	}
	if envelope.CurrentUser == "" {
		return "", errors.New(errors.ErrorTypeAuth, "session object has no current user")
	}

	var user currentUser
	if err := json.Unmarshal([]byte(envelope.CurrentUser), &user); err != nil {
		return "", errors.New(errors.ErrorTypeAuth, "malformed current user payload: %v", err)
	}
	if user.Data.AuthToken == "" {
		return "", errors.New(errors.ErrorTypeAuth, "session object has no auth token")
	}

	return user.Data.AuthToken, nil
}
