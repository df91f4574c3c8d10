package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/musui/musui-server/internal/model"
)

// GoTrue talks to a GoTrue-compatible auth server over HTTP.
type GoTrue struct {
	client     *resty.Client
	anonKey    string
	serviceKey string
}

// NewGoTrue creates a client for the auth server at baseURL (the project URL;
// endpoints live under /auth/v1). serviceKey may be empty.
func NewGoTrue(baseURL, anonKey, serviceKey string) *GoTrue {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	return &GoTrue{client: c, anonKey: anonKey, serviceKey: serviceKey}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (g *GoTrue) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	var out userResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("apikey", g.anonKey).
		SetAuthToken(token).
		Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("auth server request: %w", err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized, resp.StatusCode() == http.StatusForbidden:
		return nil, fmt.Errorf("%w: auth server rejected token", model.ErrUnauthenticated)
	case resp.StatusCode() != http.StatusOK:
		return nil, fmt.Errorf("auth server status %d: %s", resp.StatusCode(), resp.String())
	}
	if err := decodeBody(resp, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: empty user", model.ErrUnauthenticated)
	}
	return &model.User{ID: out.ID, Email: out.Email}, nil
}

// SignOut revokes the session behind token. An already-invalid token is not an error.
func (g *GoTrue) SignOut(ctx context.Context, token string) error {
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("apikey", g.anonKey).
		SetAuthToken(token).
		Post("/auth/v1/logout")
	if err != nil {
		return fmt.Errorf("auth server request: %w", err)
	}
	if resp.StatusCode() >= 300 && resp.StatusCode() != http.StatusUnauthorized && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("auth server status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// decodeBody parses a 200 body as JSON whatever Content-Type the server sent.
// An undecodable body is an error, never an empty result.
func decodeBody(resp *resty.Response, out any) error {
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("auth server body (%s): %w", resp.Header().Get("Content-Type"), err)
	}
	return nil
}

type adminUsersResponse struct {
	Users []userResponse `json:"users"`
}

const adminPageSize = 1000

// EmailRegistered pages through the admin user list looking for email
// (case-insensitive). Requires the service-role key.
func (g *GoTrue) EmailRegistered(ctx context.Context, email string) (bool, error) {
	if g.serviceKey == "" {
		return false, model.ErrNotConfigured
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for page := 1; ; page++ {
		var out adminUsersResponse
		resp, err := g.client.R().
			SetContext(ctx).
			SetHeader("apikey", g.serviceKey).
			SetAuthToken(g.serviceKey).
			SetQueryParam("page", fmt.Sprint(page)).
			SetQueryParam("per_page", fmt.Sprint(adminPageSize)).
			Get("/auth/v1/admin/users")
		if err != nil {
			return false, fmt.Errorf("auth admin request: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return false, fmt.Errorf("auth admin status %d: %s", resp.StatusCode(), resp.String())
		}
		if err := decodeBody(resp, &out); err != nil {
			return false, err
		}
		for _, u := range out.Users {
			if strings.ToLower(u.Email) == email {
				return true, nil
			}
		}
		if len(out.Users) < adminPageSize {
			return false, nil
		}
	}
}
