package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"finwatch/internal/httputil"
	"finwatch/internal/models"
)

const clientName = "finwatch"
const clientVersion = "1.0"

// Initial try plus three retries, with 1s/2s/4s backoff between them.
const requestAttempts = 4

// CredentialSource supplies the current server identity to every
// request. Reads are serialized by the source; the gateway never caches
// the token.
type CredentialSource interface {
	Current() (models.Credentials, bool)
}

// Client is the API gateway to the media server. All requests read the
// base URL and token through the CredentialSource, retry transient
// failures, and classify errors per the gateway taxonomy. A 401/403 on
// the authenticated path fires the session-expired hook exactly once per
// failing request.
type Client struct {
	http       *http.Client
	resolve    *http.Client
	creds      CredentialSource
	limiter    *rate.Limiter
	onExpired  func()
	retryDelay time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces both underlying HTTP clients (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.resolve = hc
	}
}

// WithOnSessionExpired installs the global-logout hook invoked when any
// request fails with 401/403.
func WithOnSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

// WithRetryBackoff overrides the base delay between retry attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

func New(creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		http:       httputil.NewClient(),
		resolve:    httputil.NewClientWithTimeout(httputil.ResolveTimeout),
		creds:      creds,
		limiter:    rate.NewLimiter(20, 40),
		retryDelay: time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type authResponse struct {
	AccessToken string `json:"AccessToken"`
	ServerID    string `json:"ServerId"`
	User        struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"User"`
}

// Authenticate exchanges a username and password for an access token.
// It does not require an existing session and a 401 here means bad
// credentials, not an expired session.
func (c *Client) Authenticate(ctx context.Context, serverURL, username, password, deviceID string) (models.Credentials, error) {
	if err := httputil.ValidateServerURL(serverURL); err != nil {
		return models.Credentials{}, &Error{Kind: KindInvalidURL, Err: err}
	}

	body, err := json.Marshal(map[string]string{"Username": username, "Pw": password})
	if err != nil {
		return models.Credentials{}, err
	}
	u := strings.TrimRight(serverURL, "/") + "/Users/AuthenticateByName"

	var auth authResponse
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return &Error{Kind: KindInvalidURL, Err: err}
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Emby-Authorization", fmt.Sprintf(
			`MediaBrowser Client=%q, Device=%q, DeviceId=%q, Version=%q`,
			clientName, clientName, deviceID, clientVersion))

		resp, err := c.http.Do(req)
		if err != nil {
			return &Error{Kind: KindNetwork, Err: err}
		}
		defer httputil.DrainBody(resp)

		if resp.StatusCode != http.StatusOK {
			return &Error{Kind: KindHTTP, Status: resp.StatusCode}
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxResponseBody))
		if err != nil {
			return &Error{Kind: KindNetwork, Err: err}
		}
		if err := json.Unmarshal(data, &auth); err != nil {
			return &Error{Kind: KindInvalidResponse, Err: err}
		}
		return nil
	}

	if err := c.withRetry(ctx, attempt); err != nil {
		return models.Credentials{}, err
	}
	if auth.AccessToken == "" || auth.User.ID == "" {
		return models.Credentials{}, &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("authentication response missing token or user")}
	}

	return models.Credentials{
		ServerURL:   strings.TrimRight(serverURL, "/"),
		AccessToken: auth.AccessToken,
		UserID:      auth.User.ID,
		UserName:    auth.User.Name,
		ServerID:    auth.ServerID,
		DeviceID:    deviceID,
	}, nil
}

// do issues an authenticated request on the unified path: rate-limited,
// retried on transient failure, with out decoded from the JSON body when
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doWith(ctx, c.http, method, path, query, body, out)
}

func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, query url.Values, body, out any) error {
	creds, ok := c.creds.Current()
	if !ok {
		return &Error{Kind: KindNotConfigured}
	}

	u := creds.ServerURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	if _, err := url.Parse(u); err != nil {
		return &Error{Kind: KindInvalidURL, Err: err}
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}

	attempt := func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return &Error{Kind: KindInvalidURL, Err: err}
		}
		req.Header.Set("X-Emby-Token", creds.AccessToken)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := hc.Do(req)
		if err != nil {
			return &Error{Kind: KindNetwork, Err: err}
		}
		defer httputil.DrainBody(resp)

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &Error{Kind: KindSessionExpired}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return &Error{Kind: KindHTTP, Status: resp.StatusCode}
		}

		if out == nil {
			return nil
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, httputil.MaxResponseBody))
		if err != nil {
			return &Error{Kind: KindNetwork, Err: err}
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindInvalidResponse, Err: fmt.Errorf("%w: %s", err, httputil.Truncate(data, 200))}
		}
		return nil
	}

	err := c.withRetry(ctx, attempt)
	if IsSessionExpired(err) && c.onExpired != nil {
		// Broadcast invalidation: a stale token invalidates every
		// concurrent request, not just this one.
		c.onExpired()
	}
	return err
}

func (c *Client) withRetry(ctx context.Context, attempt func() error) error {
	return retry.Do(attempt,
		retry.Context(ctx),
		retry.Attempts(requestAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
}
