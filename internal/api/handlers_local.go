package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/api/validate"
	"github.com/musui/musui-server/internal/localstore"
	"github.com/musui/musui-server/internal/model"
)

// LocalHandler serves the device-local archive store. Each musui_device cookie
// owns its own collection; nothing here requires sign-in.
type LocalHandler struct {
	reg      *localstore.Registry
	maxPhoto int
}

func NewLocalHandler(reg *localstore.Registry, maxPhotoBytes int) *LocalHandler {
	return &LocalHandler{reg: reg, maxPhoto: maxPhotoBytes}
}

func (h *LocalHandler) store(r *http.Request) *localstore.Store {
	return h.reg.For(deviceIDFrom(r.Context()))
}

// existing returns the device's store only when it already holds something.
func (h *LocalHandler) existing(r *http.Request) (*localstore.Store, bool) {
	return h.reg.Peek(deviceIDFrom(r.Context()))
}

// List handles GET /api/local/archives.
func (h *LocalHandler) List(w http.ResponseWriter, r *http.Request) {
	var list []*model.Archive
	if s, ok := h.existing(r); ok {
		list = s.List()
	}
	if list == nil {
		list = []*model.Archive{}
	}
	for i, a := range list {
		list[i] = a.WithoutInfusionNotes()
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"archives": list})
}

// Create handles POST /api/local/archives.
func (h *LocalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ManualInput
	if !decodeJSON(w, r, &in, int64(h.maxPhoto)+smallBody) {
		return
	}
	if err := validate.ManualEntry(in.TeaName, in.TeaType, in.Origin, in.BrandOrPurchase, in.PhotoDataURL, h.maxPhoto); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	id, err := h.store(r).AddManual(in)
	if err != nil {
		writeServiceError(w, r, "local.create", err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

// Get handles GET /api/local/archives/{id}.
func (h *LocalHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(r)
	var a *model.Archive
	if ok {
		a, ok = s.Get(mux.Vars(r)["id"])
	}
	if !ok {
		respond.WriteNotFound(w, msgNotFound)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// SetVisibility handles PATCH /api/local/archives/{id}. Unknown ids are a no-op.
func (h *LocalHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var in visibilityRequest
	if !decodeJSON(w, r, &in, smallBody) {
		return
	}
	if s, ok := h.existing(r); ok {
		s.TogglePublic(mux.Vars(r)["id"], in.value())
	}
	respond.WriteOK(w)
}
