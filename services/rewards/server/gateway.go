package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lendrewards/services/rewards/claimlog"
	"lendrewards/services/rewards/engine"
)

const defaultReceiptLimit = 50

// ReceiptLister exposes recorded claim receipts to the HTTP gateway.
type ReceiptLister interface {
	ListByAccount(ctx context.Context, account string, limit int) ([]claimlog.Receipt, error)
}

// Gateway serves the read-only HTTP surface: claimable previews, market
// state, receipts, health and Prometheus metrics.
type Gateway struct {
	engine   engine.Engine
	receipts ReceiptLister
	logger   *slog.Logger
	router   http.Handler
}

// NewGateway wires the HTTP routes. receipts may be nil.
func NewGateway(eng engine.Engine, receipts ReceiptLister, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{engine: eng, receipts: receipts, logger: logger}
	g.router = g.buildRouter()
	return g
}

// Handler returns the instrumented router.
func (g *Gateway) Handler() http.Handler {
	return otelhttp.NewHandler(g.router, "rewardsd.gateway")
}

func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", g.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(api chi.Router) {
		api.Get("/claimable/{kind}/{account}", g.handleClaimable)
		api.Get("/markets/{market}/state", g.handleMarketState)
		api.Get("/accounts/{account}/receipts", g.handleReceipts)
	})
	return r
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if g.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (g *Gateway) handleClaimable(w http.ResponseWriter, r *http.Request) {
	if g.engine == nil {
		http.Error(w, "rewards engine unavailable", http.StatusServiceUnavailable)
		return
	}
	kind := chi.URLParam(r, "kind")
	account := chi.URLParam(r, "account")
	market := r.URL.Query().Get("market")
	var version uint32
	if raw := strings.TrimSpace(r.URL.Query().Get("engine_version")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			http.Error(w, "engine_version must be an unsigned integer", http.StatusBadRequest)
			return
		}
		version = uint32(parsed)
	}
	claimable, err := g.engine.Claimable(r.Context(), version, kind, market, account)
	if err != nil {
		g.writeError(w, "claimable", err)
		return
	}
	writeJSON(w, http.StatusOK, claimable)
}

func (g *Gateway) handleMarketState(w http.ResponseWriter, r *http.Request) {
	if g.engine == nil {
		http.Error(w, "rewards engine unavailable", http.StatusServiceUnavailable)
		return
	}
	state, err := g.engine.MarketState(r.Context(), chi.URLParam(r, "market"))
	if err != nil {
		g.writeError(w, "market_state", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (g *Gateway) handleReceipts(w http.ResponseWriter, r *http.Request) {
	if g.receipts == nil {
		http.Error(w, "claim receipts disabled", http.StatusNotFound)
		return
	}
	limit := defaultReceiptLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	receipts, err := g.receipts.ListByAccount(r.Context(), chi.URLParam(r, "account"), limit)
	if err != nil {
		if errors.Is(err, claimlog.ErrInvalidAccount) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.logger.Error("list claim receipts", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"receipts": receipts})
}

func (g *Gateway) writeError(w http.ResponseWriter, action string, err error) {
	st := status.Convert(toStatus(err))
	code := httpStatus(st.Code())
	if code == http.StatusInternalServerError {
		g.logger.Error("rewards gateway error", "action", action, "error", err)
	}
	http.Error(w, st.Message(), code)
}

func httpStatus(code codes.Code) int {
	switch code {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
