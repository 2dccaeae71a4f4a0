package album

import (
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	apperrors "mitenedl/pkg/errors"
	"mitenedl/pkg/logger"
)

// State is the session's position in the authentication lifecycle
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateAuthFailed     State = "auth_failed"
)

// Session is the authenticated HTTP context shared by all album
// requests. It is created once per run, authenticates at most once (on
// the first page, if the album challenges for a password), and is safe
// for concurrent use by the download workers once authenticated.
type Session struct {
	httpClient *http.Client
	albumURL   string
	password   string
	state      State
	headers    map[string]string
	logger     logger.Logger
}

// NewSession creates a session for the given album. The password may be
// empty; it is only required if the album turns out to be protected.
func NewSession(albumURL, password string, timeout time.Duration, log logger.Logger) (*Session, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Session{
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		albumURL: strings.TrimRight(albumURL, "/"),
		password: password,
		state:    StateAnonymous,
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		logger: log,
	}, nil
}

// State returns the session's current authentication state
func (s *Session) State() State {
	return s.state
}

// AlbumURL returns the album base URL the session was created for
func (s *Session) AlbumURL() string {
	return s.albumURL
}

// FetchPage retrieves one page of the album listing. On page 1 it
// detects the password challenge and performs the login handshake
// before re-attempting the page.
func (s *Session) FetchPage(page int) (Page, error) {
	body, err := s.getPageBody(page)
	if err != nil {
		return Page{}, err
	}

	// The challenge only ever appears on the first page; every later
	// page rides on the already-authenticated session.
	if page == 1 && hasPasswordChallenge(body) {
		if err := s.login(body); err != nil {
			return Page{}, err
		}

		body, err = s.getPageBody(page)
		if err != nil {
			return Page{}, err
		}
	}

	items, err := extractMediaListing(body)
	if err != nil {
		return Page{}, err
	}

	if s.state == StateAnonymous {
		// Public album: no challenge means the session is usable as-is
		s.state = StateAuthenticated
	}

	s.logger.DebugWithFields("album page fetched", map[string]interface{}{
		"page":       page,
		"item_count": len(items),
	})

	return Page{Number: page, Items: items}, nil
}

// login performs the password handshake: extract the one-time form
// token from the challenge page, POST the password, and verify the
// provider accepted it.
func (s *Session) login(challengeBody string) error {
	if s.password == "" {
		s.state = StateAuthFailed
		return apperrors.New(apperrors.ErrorTypeConfiguration,
			"album is password protected, no password was supplied")
	}

	s.state = StateAuthenticating
	s.logger.Info("album is password protected, logging in")

	token, err := extractAuthenticityToken(challengeBody)
	if err != nil {
		s.state = StateAuthFailed
		return err
	}

	form := url.Values{
		"session[password]":  {s.password},
		"authenticity_token": {token},
	}

	req, err := http.NewRequest(http.MethodPost, LoginURL(s.albumURL), strings.NewReader(form.Encode()))
	if err != nil {
		s.state = StateAuthFailed
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.doRequest(req)
	if err != nil {
		s.state = StateAuthFailed
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// A rejected password redirects back to the login page
	if strings.HasSuffix(resp.Request.URL.Path, "/login") {
		s.state = StateAuthFailed
		return apperrors.New(apperrors.ErrorTypeAuth,
			"could not authenticate, maybe the password is incorrect")
	}

	s.state = StateAuthenticated
	s.logger.Info("album login succeeded")
	return nil
}

// AllItems enumerates every page sequentially, starting at page 1 and
// stopping at the first empty page. Each page is fetched exactly once,
// in increasing order; only the downloads that follow are concurrent.
func (s *Session) AllItems() ([]Item, error) {
	var items []Item

	for page := 1; ; page++ {
		p, err := s.FetchPage(page)
		if err != nil {
			return nil, fmt.Errorf("fetching page %d: %w", page, err)
		}
		if !p.HasItems() {
			break
		}
		items = append(items, p.Items...)
	}

	s.logger.InfoWithFields("album enumeration complete", map[string]interface{}{
		"item_count": len(items),
	})

	return items, nil
}

// OpenDownload issues a streamed GET for one item's media bytes. The
// caller owns the returned body and must close it.
func (s *Session) OpenDownload(item Item) (io.ReadCloser, error) {
	req, err := http.NewRequest(http.MethodGet, DownloadURL(s.albumURL, item.UUID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := s.doRequest(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, apperrors.NewWithCode(apperrors.ErrorTypeTransport, resp.StatusCode,
			"download failed for %s", item.UUID)
	}

	return resp.Body, nil
}

// getPageBody fetches one enumeration page and returns its markup
func (s *Session) getPageBody(page int) (string, error) {
	req, err := http.NewRequest(http.MethodGet, PageURL(s.albumURL, page), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create page request: %w", err)
	}

	resp, err := s.doRequest(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", apperrors.NewWithCode(apperrors.ErrorTypeTransport, resp.StatusCode,
			"album page %d request failed", page)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.New(apperrors.ErrorTypeTransport,
			"failed to read album page %d: %v", page, err)
	}

	return string(body), nil
}

// doRequest performs an HTTP request with the session headers
func (s *Session) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	s.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := s.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		s.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, apperrors.New(apperrors.ErrorTypeTransport, "network error: %v", err)
	}

	s.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}
