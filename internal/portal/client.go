package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"golang.org/x/net/publicsuffix"
)

const (
	opLogin  = "login"
	opSubmit = "submit"

	maxBodySize = 4 << 20
	userAgent   = "mdrzasync/1.0"
)

// Entry is one distance record to submit.
type Entry struct {
	Day           string // YYYY-MM-DD
	Kilometers    float64
	ParticipantID string
}

type Client struct {
	loginURL  string
	submitURL string
	timeout   time.Duration
	transport http.RoundTripper
	logger    logging.Logger
}

// NewClient validates baseURL and joins the form paths onto it.
func NewClient(baseURL, loginPath, submitPath string, timeout time.Duration, logger logging.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid portal base url %q", baseURL)
	}
	base := strings.TrimRight(baseURL, "/")

	return &Client{
		loginURL:  base + "/" + strings.TrimLeft(loginPath, "/"),
		submitURL: base + "/" + strings.TrimLeft(submitPath, "/"),
		timeout:   timeout,
		transport: http.DefaultTransport,
		logger:    logger,
	}, nil
}

// SetTransport replaces the round tripper used by new sessions.
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.transport = rt
}

// Login authenticates with a fresh cookie jar. Transport failures and
// non-200 responses are reported as common.ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, *Page, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cookie jar: %w", common.ErrAuth, err)
	}

	s := &Session{
		client: c,
		http: &http.Client{
			Jar:       jar,
			Timeout:   c.timeout,
			Transport: c.transport,
		},
	}

	form := url.Values{
		"username": {username},
		"passwort": {password},
		"btnLogin": {"btnLogin"},
	}

	page, err := s.post(ctx, opLogin, c.loginURL, form)
	if err != nil {
		return nil, nil, err
	}
	return s, page, nil
}

// Session is one user's authenticated portal session.
type Session struct {
	client *Client
	http   *http.Client
}

// Submit posts one distance entry with the given anti-forgery token.
func (s *Session) Submit(ctx context.Context, e Entry, token string) (*Page, error) {
	form := url.Values{
		"form_data[tn][value]":       {e.ParticipantID},
		"form_data[distance][req]":   {"1"},
		"form_data[distance][value]": {FormatKilometers(e.Kilometers)},
		"form_data[distance][desc]":  {"Kilometer"},
		"form_data[distdate][]":      {e.Day},
		"csrf":                       {token},
		"distsub":                    {"1"},
		"send":                       {""},
	}
	return s.post(ctx, opSubmit, s.client.submitURL, form)
}

func (s *Session) post(ctx context.Context, op, target string, form url.Values) (*Page, error) {
	sentinel := common.ErrSubmission
	if op == opLogin {
		sentinel = common.ErrAuth
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", sentinel, op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", sentinel, op, err)
	}
	defer resp.Body.Close()

	s.client.logger.Debug(ctx, "portal response",
		"op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode}
	}

	page, err := ParsePage(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", sentinel, op, err)
	}
	return page, nil
}

// FormatKilometers renders km the way the portal's form expects: plain
// decimal, no exponent, no trailing zeros.
func FormatKilometers(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}
