package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Aman-CERP/memex/internal/search"
)

// Searcher runs a query. *search.Service implements it.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Handler routes HTTP requests to a Searcher. It holds no mutable state.
type Handler struct {
	searcher Searcher
	logger   *slog.Logger
	mux      *http.ServeMux
}

// NewHandler returns the memex HTTP handler.
func NewHandler(s Searcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{searcher: s, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("/api/", h.handleSearch)
	h.mux.HandleFunc("/healthz", h.handleHealth)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	h.logger.Debug("http_request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("latency", time.Since(start)))
}

// searchResponse is the launcher payload. Total is deliberately absent.
type searchResponse struct {
	Items []search.Result `json:"items"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := url.ParseQuery(r.URL.RawQuery)
	if err != nil {
		http.Error(w, "invalid query string: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !params.Has("q") {
		http.Error(w, "missing required parameter: q", http.StatusBadRequest)
		return
	}

	req := search.Request{
		Query:  params.Get("q"),
		NHits:  intParam(params, "nhits", search.DefaultNHits),
		Offset: intParam(params, "offset", 0),
	}

	resp, err := h.searcher.Search(r.Context(), req)
	switch {
	case err != nil && search.IsInvalidQuery(err):
		h.logger.Debug("search_rejected", slog.String("query", req.Query), slog.String("error", err.Error()))
		http.Error(w, "invalid query: "+err.Error(), http.StatusBadRequest)
		return
	case err != nil && search.IsInvalidRequest(err):
		h.logger.Debug("search_rejected", slog.String("query", req.Query), slog.String("error", err.Error()))
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.Error("search_failed", slog.String("query", req.Query), slog.String("error", err.Error()))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}

	body, err := json.MarshalIndent(searchResponse{Items: resp.Items}, "", "  ")
	if err != nil {
		h.logger.Error("encode_failed", slog.String("error", err.Error()))
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// intParam returns the integer value of key, or def when it is absent or
// not a number.
func intParam(params url.Values, key string, def int) int {
	v, err := strconv.Atoi(params.Get(key))
	if err != nil {
		return def
	}
	return v
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
