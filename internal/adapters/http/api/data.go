package api

import "net/http"

// DataHandler handles source data reloads.
type DataHandler struct {
	deps   DataDependencies
	server *Server
}

// HandleRefresh handles POST /api/data/refresh requests.
func (h *DataHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.data_refresh"
	res, err := h.deps.Refresh(r.Context())
	if err != nil {
		h.server.fail(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
