package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/musui/musui-server/internal/api/respond"
	"github.com/musui/musui-server/internal/catalog"
	"github.com/musui/musui-server/internal/feed"
	"github.com/musui/musui-server/internal/localstore"
	"github.com/musui/musui-server/internal/model"
	"github.com/musui/musui-server/internal/services"
)

// FeedHandler merges public remote archives, this device's public local
// archives and the catalog placeholders.
type FeedHandler struct {
	archives  *services.ArchiveService
	local     *localstore.Registry
	assembler *feed.Assembler
	catalog   *catalog.Catalog
}

func NewFeedHandler(archives *services.ArchiveService, local *localstore.Registry, c *catalog.Catalog) *FeedHandler {
	return &FeedHandler{archives: archives, local: local, assembler: feed.NewAssembler(c), catalog: c}
}

// Feed handles GET /api/feed.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	remote, err := h.archives.ListPublic(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("feed without remote archives")
		remote = nil
	}
	var local []*model.Archive
	if h.local != nil {
		if s, ok := h.local.Peek(deviceIDFrom(r.Context())); ok {
			local = s.ListPublic()
		}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{"entries": h.assembler.Assemble(remote, local)})
}

// Courses handles GET /api/courses.
func (h *FeedHandler) Courses(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]any{"courses": h.catalog.Courses()})
}
