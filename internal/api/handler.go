package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
	"github.com/s4rv4d/kobe-dashboard/internal/donations"
	"github.com/s4rv4d/kobe-dashboard/internal/portfolio"
	"github.com/s4rv4d/kobe-dashboard/internal/safe"
	"github.com/s4rv4d/kobe-dashboard/internal/snapshot"
	"github.com/s4rv4d/kobe-dashboard/internal/vault"
)

const defaultNftLimit = 50

// PortfolioService serves priced holdings for arbitrary addresses.
type PortfolioService interface {
	GetSafeInfo(ctx context.Context, address string) (safe.Info, error)
	GetPortfolio(ctx context.Context, address string) (portfolio.Portfolio, error)
	GetTokens(ctx context.Context, address, sortBy, order string) (portfolio.TokensResponse, error)
	GetNfts(ctx context.Context, address string, query portfolio.NftQuery) (portfolio.NftsResponse, error)
}

// VaultService serves fund-level return statistics.
type VaultService interface {
	GetStats(ctx context.Context) (domain.VaultStats, error)
	GetContributions(ctx context.Context) (vault.ContributionsResponse, error)
}

// DonationService serves donation history per donor address.
type DonationService interface {
	GetByAddress(ctx context.Context, address string) (donations.Response, error)
}

// SnapshotService serves and generates persisted vault stat snapshots.
type SnapshotService interface {
	Generate(ctx context.Context, date time.Time) (domain.VaultStats, error)
	GetLatest(ctx context.Context) (*snapshot.Snapshot, error)
	GetByDate(ctx context.Context, date time.Time) (*snapshot.Snapshot, error)
	List(ctx context.Context, limit int) ([]snapshot.Snapshot, error)
}

// Handler provides HTTP endpoints for the dashboard API.
type Handler struct {
	portfolios PortfolioService
	vaults     VaultService
	donors     DonationService
	snapshots  SnapshotService
}

// NewHandler creates a new API handler.
func NewHandler(portfolios PortfolioService, vaults VaultService, donors DonationService, snapshots SnapshotService) *Handler {
	return &Handler{
		portfolios: portfolios,
		vaults:     vaults,
		donors:     donors,
		snapshots:  snapshots,
	}
}

// GetVaultStats handles GET /api/v1/vault/stats.
func (h *Handler) GetVaultStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.vaults.GetStats(r.Context())
	if err != nil {
		slog.Error("failed to get vault stats", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetVaultContributions handles GET /api/v1/vault/contributions.
func (h *Handler) GetVaultContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.vaults.GetContributions(r.Context())
	if err != nil {
		slog.Error("failed to get vault contributions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, contributions)
}

// GetPortfolio handles GET /api/v1/portfolio/{address}.
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	pf, err := h.portfolios.GetPortfolio(r.Context(), address)
	if err != nil {
		h.portfolioError(w, address, err)
		return
	}
	writeJSON(w, http.StatusOK, pf)
}

// GetTokens handles GET /api/v1/portfolio/{address}/tokens.
func (h *Handler) GetTokens(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	sortBy := r.URL.Query().Get("sortBy")
	order := r.URL.Query().Get("order")

	tokens, err := h.portfolios.GetTokens(r.Context(), address, sortBy, order)
	if err != nil {
		h.portfolioError(w, address, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// GetNfts handles GET /api/v1/portfolio/{address}/nfts.
func (h *Handler) GetNfts(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	query := portfolio.NftQuery{
		Collection: r.URL.Query().Get("collection"),
		Limit:      queryInt(r, "limit", defaultNftLimit),
		Offset:     queryInt(r, "offset", 0),
	}

	nfts, err := h.portfolios.GetNfts(r.Context(), address, query)
	if err != nil {
		h.portfolioError(w, address, err)
		return
	}
	writeJSON(w, http.StatusOK, nfts)
}

// GetSafeInfo handles GET /api/v1/portfolio/{address}/safe.
func (h *Handler) GetSafeInfo(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	info, err := h.portfolios.GetSafeInfo(r.Context(), address)
	if err != nil {
		h.portfolioError(w, address, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetDonations handles GET /api/v1/donations/{address}.
func (h *Handler) GetDonations(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	resp, err := h.donors.GetByAddress(r.Context(), address)
	if err != nil {
		h.portfolioError(w, address, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetLatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/snapshots/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := queryInt(r, "limit", 30)
	if limit <= 0 {
		limit = 30
	}
	limit = min(limit, maxLimit)

	snapshots, err := h.snapshots.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GenerateSnapshot handles POST /api/v1/snapshots/generate.
func (h *Handler) GenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	stats, err := h.snapshots.Generate(r.Context(), time.Now())
	if err != nil {
		slog.Error("failed to generate snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate snapshot")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// portfolioError maps service errors for address-scoped endpoints.
func (h *Handler) portfolioError(w http.ResponseWriter, address string, err error) {
	if errors.Is(err, domain.ErrInvalidAddress) {
		writeError(w, http.StatusBadRequest, "invalid address format")
		return
	}
	slog.Error("address endpoint failed", "address", address, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
