package api

import (
	"context"
	"net/http"
)

// MetaDependencies reads division registries and timelines.
type MetaDependencies interface {
	Meta(ctx context.Context, division string) (Summary, error)
}

// MetaHandler handles division meta requests.
type MetaHandler struct {
	deps MetaDependencies
}

// NewMetaHandler creates a new meta handler.
func NewMetaHandler(deps MetaDependencies) *MetaHandler {
	return &MetaHandler{deps: deps}
}

// HandleGetMeta handles GET /meta/{division}.
func (h *MetaHandler) HandleGetMeta(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Meta(r.Context(), r.PathValue("division"))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
