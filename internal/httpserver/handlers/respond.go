package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"unicode/utf8"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// maxFieldLen caps every user-supplied string column.
const maxFieldLen = 255

func tooLong(s string) bool {
	return utf8.RuneCountInString(s) > maxFieldLen
}

func tooLongPtr(s *string) bool {
	return s != nil && tooLong(*s)
}

// pageParams reads offset pagination from the query string. Defaults
// match the original API: skip=0, limit=100. No upper bound on limit.
func pageParams(r *http.Request) (skip, limit int) {
	skip, limit = 0, 100
	if v := r.URL.Query().Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			skip = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			limit = n
		}
	}
	return skip, limit
}
