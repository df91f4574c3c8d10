package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/services"
)

const smallBody = 64 << 10

// decodeJSON reads at most limit bytes into dst. On failure it writes the reply
// (413 when too large, 400 otherwise) and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.WriteError(w, http.StatusRequestEntityTooLarge, "")
			return false
		}
		respond.WriteBadRequest(w, msgInvalidJSON)
		return false
	}
	return true
}

// requireWriter runs the checks every authenticated write shares, in order:
// storage configured, then a signed-in caller.
func requireWriter(w http.ResponseWriter, r *http.Request, svc *services.ArchiveService) (*model.User, bool) {
	if !svc.Configured() {
		respond.WriteError(w, http.StatusServiceUnavailable, msgNotConfigured)
		return nil, false
	}
	user := userFrom(r)
	if user == nil {
		respond.WriteError(w, http.StatusUnauthorized, msgLoginRequired)
		return nil, false
	}
	return user, true
}

type visibilityRequest struct {
	IsPublic *bool `json:"isPublic"`
}

func (v visibilityRequest) value() bool { return v.IsPublic != nil && *v.IsPublic }
