package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/v1/vault/stats", handler.GetVaultStats)
	mux.HandleFunc("GET /api/v1/vault/contributions", handler.GetVaultContributions)

	mux.HandleFunc("GET /api/v1/portfolio/{address}", handler.GetPortfolio)
	mux.HandleFunc("GET /api/v1/portfolio/{address}/tokens", handler.GetTokens)
	mux.HandleFunc("GET /api/v1/portfolio/{address}/nfts", handler.GetNfts)
	mux.HandleFunc("GET /api/v1/portfolio/{address}/safe", handler.GetSafeInfo)

	mux.HandleFunc("GET /api/v1/donations/{address}", handler.GetDonations)

	mux.HandleFunc("GET /api/v1/snapshots/latest", handler.GetLatestSnapshot)
	mux.HandleFunc("GET /api/v1/snapshots/{date}", handler.GetSnapshotByDate)
	mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)

	generateHandler := http.HandlerFunc(handler.GenerateSnapshot)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/snapshots/generate", requireAuth(adminAPIKey, generateHandler))
	} else {
		mux.Handle("POST /api/v1/snapshots/generate", generateHandler)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
