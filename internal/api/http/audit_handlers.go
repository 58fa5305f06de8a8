package http

import (
	"net/http"

	"github.com/exploremore-ph/exploremore/internal/audit"
)

// GET /api/admin/audit?q=&limit=&offset=
func AuditSearchHandler(repo *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := repo.Search(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit", 0), queryInt(r, "offset", 0))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ok(w, http.StatusOK, map[string]any{"events": events})
	}
}
