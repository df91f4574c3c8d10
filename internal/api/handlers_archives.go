package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/api/validate"
	"github.com/musui/musui-server/internal/identity"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/services"
)

// ArchiveHandler serves the remote archive endpoints.
type ArchiveHandler struct {
	svc      *services.ArchiveService
	maxPhoto int
}

func NewArchiveHandler(svc *services.ArchiveService, maxPhotoBytes int) *ArchiveHandler {
	return &ArchiveHandler{svc: svc, maxPhoto: maxPhotoBytes}
}

func userFrom(r *http.Request) *model.User { return identity.UserFrom(r.Context()) }

// ListMine handles GET /api/archives. Anonymous callers get an empty list.
func (h *ArchiveHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListMine(r.Context(), userFrom(r))
	if err != nil {
		writeServiceError(w, r, "archives.list_mine", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"archives": list})
}

// CreateManual handles POST /api/archives.
func (h *ArchiveHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	user, ok := requireWriter(w, r, h.svc)
	if !ok {
		return
	}
	var in model.ManualInput
	if !decodeJSON(w, r, &in, int64(h.maxPhoto)+smallBody) {
		return
	}
	if err := validate.ManualEntry(in.TeaName, in.TeaType, in.Origin, in.BrandOrPurchase, in.PhotoDataURL, h.maxPhoto); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id, err := h.svc.CreateManual(r.Context(), user, in)
	if err != nil {
		writeServiceError(w, r, "archives.create_manual", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

type sessionRequest struct {
	Items model.Items `json:"items"`
}

// maxSessionPhotos bounds the request body of a session upload.
const maxSessionPhotos = 4

// CreateSession handles POST /api/archives/sessions.
func (h *ArchiveHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := requireWriter(w, r, h.svc)
	if !ok {
		return
	}
	var in sessionRequest
	if !decodeJSON(w, r, &in, int64(h.maxPhoto)*maxSessionPhotos+smallBody) {
		return
	}
	for _, it := range in.Items {
		rec := model.RecordOf(it)
		var err error
		if rec.CourseID == model.ManualCourseID {
			err = validate.ManualEntry(rec.TeaName, rec.TeaType, rec.Origin, rec.BrandOrPurchase, rec.PhotoDataURL, h.maxPhoto)
		} else {
			err = validate.SessionNote(rec.Mood, rec.Memo, rec.PhotoDataURL, h.maxPhoto)
		}
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	id, err := h.svc.CreateSession(r.Context(), user, in.Items)
	if err != nil {
		writeServiceError(w, r, "archives.create_session", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// ListPublic handles GET /api/archives/public. Storage failures degrade to an
// empty list.
func (h *ArchiveHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListPublic(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("public archives unavailable")
		list = []*model.PublicArchive{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"archives": list})
}

// Get handles GET /api/archives/{id}. Private archives of other users are 404.
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Configured() {
		respond.WriteError(w, http.StatusServiceUnavailable, msgNotConfigured)
		return
	}
	id := mux.Vars(r)["id"]
	if validate.ArchiveID(id) != nil {
		respond.WriteNotFound(w, msgNotFound)
		return
	}
	a, err := h.svc.Get(r.Context(), id, userFrom(r))
	if err != nil {
		writeServiceError(w, r, "archives.get", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// SetVisibility handles PATCH /api/archives/{id}. A missing isPublic means false.
func (h *ArchiveHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	user, ok := requireWriter(w, r, h.svc)
	if !ok {
		return
	}
	var in visibilityRequest
	if !decodeJSON(w, r, &in, smallBody) {
		return
	}
	id := mux.Vars(r)["id"]
	if validate.ArchiveID(id) != nil {
		respond.WriteNotFound(w, msgNotFound)
		return
	}
	if err := h.svc.SetVisibility(r.Context(), user, id, in.value()); err != nil {
		writeServiceError(w, r, "archives.set_visibility", err)
		return
	}
	respond.WriteOK(w)
}

// Delete handles DELETE /api/archives/{id}.
func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireWriter(w, r, h.svc)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if validate.ArchiveID(id) != nil {
		respond.WriteNotFound(w, msgNotFound)
		return
	}
	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, "archives.delete", err)
		return
	}
	respond.WriteOK(w)
}
