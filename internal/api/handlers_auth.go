package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/api/validate"
	"github.com/musui/musui-server/internal/identity"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/services"
)

// AuthHandler serves the session and sign-up helper endpoints.
type AuthHandler struct {
	provider   identity.Provider
	accounts   *services.AccountService
	cookieName string
	secure     bool
}

func NewAuthHandler(p identity.Provider, accounts *services.AccountService, cookieName string, secureCookie bool) *AuthHandler {
	return &AuthHandler{provider: p, accounts: accounts, cookieName: cookieName, secure: secureCookie}
}

type sessionUser struct {
	ID    string  `json:"id"`
	Email *string `json:"email"`
}

// User handles GET /api/auth/user.
func (h *AuthHandler) User(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	if u == nil {
		respond.WriteJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}
	out := sessionUser{ID: u.ID}
	if u.Email != "" {
		email := u.Email
		out.Email = &email
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"user": out})
}

type availability struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// CheckEmail handles GET /api/auth/check-email?email=.
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		respond.WriteJSON(w, http.StatusBadRequest, availability{Error: "email required"})
		return
	}
	if err := validate.Email(email); err != nil {
		respond.WriteJSON(w, http.StatusBadRequest, availability{Error: err.Error()})
		return
	}
	ok, err := h.accounts.EmailAvailable(r.Context(), email)
	h.writeAvailability(w, r, "auth.check_email", ok, err)
}

// CheckNickname handles GET /api/auth/check-nickname?nickname=.
func (h *AuthHandler) CheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := strings.TrimSpace(r.URL.Query().Get("nickname"))
	if nickname == "" {
		respond.WriteJSON(w, http.StatusBadRequest, availability{Error: "nickname required"})
		return
	}
	ok, err := h.accounts.NicknameAvailable(r.Context(), nickname)
	h.writeAvailability(w, r, "auth.check_nickname", ok, err)
}

func (h *AuthHandler) writeAvailability(w http.ResponseWriter, r *http.Request, op string, ok bool, err error) {
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusOK, availability{Available: ok})
	case errors.Is(err, model.ErrNotConfigured):
		respond.WriteJSON(w, http.StatusServiceUnavailable, availability{Error: msgAdminRequired})
	case errors.Is(err, model.ErrValidation):
		respond.WriteJSON(w, http.StatusBadRequest, availability{Error: err.Error()})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("availability check failed")
		respond.WriteJSON(w, http.StatusInternalServerError, availability{Error: msgInternalServer})
	}
}

// SignOut handles POST /api/auth/signout: revoke upstream when possible, drop
// the session cookie and send the browser home.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if h.provider != nil {
		if token, err := identity.ExtractToken(r, h.cookieName); err == nil {
			if err := h.provider.SignOut(r.Context(), token); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("upstream sign-out failed")
			}
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
