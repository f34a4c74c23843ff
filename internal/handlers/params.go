package handlers

import (
	"net/http"
	"strconv"
	"strings"
)

// getParam returns a pat path parameter, falling back to the query string.
func getParam(r *http.Request, name string) string {
	if val := r.URL.Query().Get(":" + name); val != "" {
		return strings.TrimSpace(val)
	}
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// queryInt parses an optional positive integer query parameter.
func queryInt(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
