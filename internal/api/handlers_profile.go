package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/api/validate"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/services"
)

type ProfileHandler struct {
	svc *services.ProfileService
}

func NewProfileHandler(svc *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// Get handles GET /api/profile. Anonymous callers and callers without a
// profile row both get {"profile": null}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), userFrom(r))
	switch {
	case errors.Is(err, model.ErrNotConfigured):
		respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"profile": nil})
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("profile lookup failed")
		p = nil
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"profile": p})
}

type profileUpdate struct {
	DisplayName *string `json:"display_name"`
}

// Update handles PATCH /api/profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Configured() {
		respond.WriteError(w, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}
	user := userFrom(r)
	if user == nil {
		respond.WriteError(w, http.StatusUnauthorized, msgLoginRequired)
		return
	}
	var in profileUpdate
	if !decodeJSON(w, r, &in, smallBody) {
		return
	}
	if name := services.NormalizeDisplayName(in.DisplayName); name != nil {
		if err := validate.DisplayName(*name); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if err := h.svc.SetDisplayName(r.Context(), user, in.DisplayName); err != nil {
		writeServiceError(w, r, "profile.update", err)
		return
	}
	respond.WriteOK(w)
}
