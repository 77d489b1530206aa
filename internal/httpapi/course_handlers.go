package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"campus.org/internal/campus"
)

// handleCourseTags lists every course tag by usage, most frequent first. An
// optional limit caps the list.
func (a *API) handleCourseTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	tags, err := a.registry.TagUsage(r.Context(), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if tags == nil {
		tags = []campus.TagCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tags})
}

// handleCourseTagRecommend returns the tags containing txt as a substring.
// Autocomplete support for course forms; an empty txt yields an empty list.
func (a *API) handleCourseTagRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	txt := strings.TrimSpace(r.URL.Query().Get("txt"))
	names, err := a.registry.SuggestTags(r.Context(), txt)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": names})
}
