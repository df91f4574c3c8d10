// Package client is the musui API client used by the terminal app. Writes go
// through Recorder, which keeps archives locally when the server cannot take them.
package client

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/model"
)

const deviceCookie = "musui_device"

// Client calls the musui HTTP API. It is safe for concurrent use.
type Client struct {
	rest *resty.Client
	log  zerolog.Logger

	maxRetries     uint64
	initialBackoff time.Duration
	maxBackoff     time.Duration
	debug          bool
}

// New constructs a Client for the server at baseURL (without the /api suffix).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	c := &Client{
		rest: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")+"/api").
			SetHeader("Content-Type", "application/json").
			SetTimeout(15 * time.Second),
		log:            zerolog.Nop(),
		maxRetries:     3,
		initialBackoff: 200 * time.Millisecond,
		maxBackoff:     2 * time.Second,
	}
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.debug {
		c.installDebugHooks()
	}
	return c, nil
}

func debugLoggingRequested() bool {
	v := strings.ToLower(os.Getenv("MUSUI_DEBUG"))
	return v == "1" || v == "true"
}

func (c *Client) installDebugHooks() {
	c.rest.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		c.log.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status_code", resp.StatusCode()).
			Dur("took", resp.Time()).
			Msg("HTTP response")
		return nil
	})
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialBackoff
	exp.Multiplier = 2
	exp.MaxInterval = c.maxBackoff
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, c.maxRetries), ctx)
}

// idempotent reports whether repeating method cannot create a second resource.
// A POST whose response was lost may already be committed, so it is sent once.
func idempotent(method string) bool {
	return method != http.MethodPost
}

// call performs one logical request, retrying recoverable failures of
// idempotent methods. result may be nil when the body is not needed.
func (c *Client) call(ctx context.Context, op, method, path string, body, result any) error {
	retry := idempotent(method)
	attempt := 0
	operation := func() error {
		if attempt > 0 {
			retriesTotal.WithLabelValues(op).Inc()
		}
		attempt++
		req := c.rest.R().SetContext(ctx).SetError(&errorBody{})
		if body != nil {
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !retry {
				return backoff.Permanent(networkError(op, err))
			}
			return networkError(op, err)
		}
		if resp.IsError() {
			msg := resp.Status()
			if eb, ok := resp.Error().(*errorBody); ok && eb.Error != "" {
				msg = eb.Error
			}
			apiErr := classifyStatus(op, resp.StatusCode(), msg)
			if apiErr.Category == Irrecoverable || !retry {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.log.Debug().Err(err).Str("op", op).Dur("retry_in", wait).Msg("retrying")
	}
	return backoff.RetryNotify(operation, c.newBackOff(ctx), notify)
}

type idResponse struct {
	ID string `json:"id"`
}

type archivesResponse struct {
	Archives []*model.Archive `json:"archives"`
}

type publicArchivesResponse struct {
	Archives []*model.PublicArchive `json:"archives"`
}

// CreateManual stores a manual entry remotely and returns its id.
func (c *Client) CreateManual(ctx context.Context, in model.ManualInput) (string, error) {
	var out idResponse
	if err := c.call(ctx, "create_manual", http.MethodPost, "/archives", in, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// CreateSession stores the items of a guided session remotely and returns the server id.
func (c *Client) CreateSession(ctx context.Context, items model.Items) (string, error) {
	var out idResponse
	body := map[string]model.Items{"items": items}
	if err := c.call(ctx, "create_session", http.MethodPost, "/archives/sessions", body, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) ListMine(ctx context.Context) ([]*model.Archive, error) {
	var out archivesResponse
	if err := c.call(ctx, "list_mine", http.MethodGet, "/archives", nil, &out); err != nil {
		return nil, err
	}
	return out.Archives, nil
}

func (c *Client) ListPublic(ctx context.Context) ([]*model.PublicArchive, error) {
	var out publicArchivesResponse
	if err := c.call(ctx, "list_public", http.MethodGet, "/archives/public", nil, &out); err != nil {
		return nil, err
	}
	return out.Archives, nil
}

func (c *Client) Get(ctx context.Context, id string) (*model.Archive, error) {
	var out model.Archive
	if err := c.call(ctx, "get", http.MethodGet, "/archives/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetVisibility(ctx context.Context, id string, isPublic bool) error {
	return c.call(ctx, "set_visibility", http.MethodPatch, "/archives/"+id, map[string]bool{"isPublic": isPublic}, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.call(ctx, "delete", http.MethodDelete, "/archives/"+id, nil, nil)
}

// Profile returns the caller's profile, or nil when none exists.
func (c *Client) Profile(ctx context.Context) (*model.Profile, error) {
	var out struct {
		Profile *model.Profile `json:"profile"`
	}
	if err := c.call(ctx, "profile", http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// SetDisplayName sets or (with nil) clears the caller's display name.
func (c *Client) SetDisplayName(ctx context.Context, name *string) error {
	return c.call(ctx, "set_display_name", http.MethodPatch, "/profile", map[string]*string{"display_name": name}, nil)
}

// CurrentUser returns the signed-in user, or nil for an anonymous token.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var out struct {
		User *model.User `json:"user"`
	}
	if err := c.call(ctx, "current_user", http.MethodGet, "/auth/user", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Courses(ctx context.Context) ([]catalog.Course, error) {
	var out struct {
		Courses []catalog.Course `json:"courses"`
	}
	if err := c.call(ctx, "courses", http.MethodGet, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}
