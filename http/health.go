package http

import (
	"fmt"
	"net/http"
)

// HealthHandler reports that the server is up. It requires no credential.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"name":"knoxite-admin","status":"pass"}`)
}
