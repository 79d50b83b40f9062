package server

import (
	"net/http"

	"github.com/woozymasta/skyglow/internal/metrics"
)

// Handler returns the full route table wrapped in the request logger.
func (s *ServerContext) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lightmap/{z}/{x}/{y}", s.HandleTile)
	mux.HandleFunc("/api/skyquality", s.HandleSkyQuality)
	mux.HandleFunc("/api/darkspots", s.HandleDarkSpots)
	mux.HandleFunc("/healthz", s.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())

	return RequestLogger(onlyGET(mux))
}

func onlyGET(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}
