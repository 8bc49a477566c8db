package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	healthyState       = "Swift S3 Gateway is "
	hdrContentType     = "Content-Type"
	defaultContentType = "text/plain; charset=utf-8"
)

func attachHealthy(r *mux.Router) {
	healthy := r.PathPrefix(systemPath + "/-").
		Subrouter().
		StrictSlash(true)

	healthy.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(hdrContentType, defaultContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintln(w, healthyState+"ready")
	})

	healthy.HandleFunc("/healthy", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(hdrContentType, defaultContentType)
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintln(w, healthyState+"healthy")
	})
}
