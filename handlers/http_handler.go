package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/outcome"
	"github.com/giygas/drugcost-api/tools"
)

const (
	maxIdentityLimit    = 200
	maxEquivalentsLimit = 1000
	maxCostLimit        = 200
	maxTop              = 50
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	tools     *tools.Tools
	store     interfaces.CatalogStore
	validator interfaces.InputValidator
	health    interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	t *tools.Tools,
	store interfaces.CatalogStore,
	validator interfaces.InputValidator,
	health interfaces.HealthChecker,
) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		tools:     t,
		store:     store,
		validator: validator,
		health:    health,
	}
}

// ServeHTTP implements the http.Handler interface
func (h *HTTPHandlerImpl) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// This is a placeholder - the actual routing is handled by chi
	RespondWithError(w, http.StatusNotImplemented, "Not implemented")
}

// badRequest reports a malformed query parameter the tool never saw.
func badRequest(w http.ResponseWriter, r *http.Request, stage outcome.Stage, err error) {
	respondWithResult(w, r, tools.Result[any]{
		Kind:  outcome.KindInvalidInput,
		Stage: stage,
		Error: err.Error(),
	})
}

// pathParam returns a decoded URL parameter. chi routes on the escaped path
// whenever the request carries escapes such as %2F or %3B, and its
// parameters are then still percent-encoded.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", fmt.Errorf("%s is not a valid path segment: %w", key, err)
	}
	return decoded, nil
}

func (h *HTTPHandlerImpl) year(r *http.Request) (int, error) {
	value := r.URL.Query().Get("year")
	if value == "" {
		return 0, nil
	}
	return h.validator.ValidateYear(value)
}

// LatestYear serves GET /v1/latest-year
func (h *HTTPHandlerImpl) LatestYear(w http.ResponseWriter, r *http.Request) {
	respondWithResult(w, r, h.tools.LatestYear(r.Context()))
}

// MatchIdentity serves GET /v1/identity/{name}?strength=&limit=
func (h *HTTPHandlerImpl) MatchIdentity(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		badRequest(w, r, outcome.StageIdentity, err)
		return
	}
	limit, err := h.validator.ValidateLimit(r.URL.Query().Get("limit"), 0, maxIdentityLimit)
	if err != nil {
		badRequest(w, r, outcome.StageIdentity, err)
		return
	}
	respondWithResult(w, r, h.tools.MatchIdentity(r.Context(), tools.MatchArgs{
		Name:     name,
		Strength: r.URL.Query().Get("strength"),
		Limit:    limit,
	}))
}

// FindEquivalents serves GET /v1/equivalents?ingredient=&strength=&dosage_form=&route=&substitutable_only=&limit=
func (h *HTTPHandlerImpl) FindEquivalents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := h.validator.ValidateLimit(q.Get("limit"), 0, maxEquivalentsLimit)
	if err != nil {
		badRequest(w, r, outcome.StageEquivalents, err)
		return
	}

	args := tools.NewEquivalentsArgs(q.Get("ingredient"), q.Get("strength"), q.Get("dosage_form"), q.Get("route"))
	args.Limit = limit
	if value := q.Get("substitutable_only"); value != "" {
		only, err := strconv.ParseBool(value)
		if err != nil {
			badRequest(w, r, outcome.StageEquivalents, err)
			return
		}
		args.SubstitutableOnly = only
	}

	respondWithResult(w, r, h.tools.FindEquivalents(r.Context(), args))
}

// LookupCosts serves GET /v1/costs/{name}?year=&limit=
func (h *HTTPHandlerImpl) LookupCosts(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		badRequest(w, r, outcome.StageCosts, err)
		return
	}
	year, err := h.year(r)
	if err != nil {
		badRequest(w, r, outcome.StageCosts, err)
		return
	}
	limit, err := h.validator.ValidateLimit(r.URL.Query().Get("limit"), 0, maxCostLimit)
	if err != nil {
		badRequest(w, r, outcome.StageCosts, err)
		return
	}
	respondWithResult(w, r, h.tools.LookupCosts(r.Context(), tools.CostArgs{
		Name:  name,
		Year:  year,
		Limit: limit,
	}))
}

// GenericCandidates serves GET /v1/generic-candidates/{ingredient}
func (h *HTTPHandlerImpl) GenericCandidates(w http.ResponseWriter, r *http.Request) {
	ingredient, err := pathParam(r, "ingredient")
	if err != nil {
		badRequest(w, r, outcome.StageCandidates, err)
		return
	}
	respondWithResult(w, r, h.tools.GenericCandidates(ingredient))
}

// Compare serves GET /v1/compare?q=&year=&top=
func (h *HTTPHandlerImpl) Compare(w http.ResponseWriter, r *http.Request) {
	year, err := h.year(r)
	if err != nil {
		badRequest(w, r, outcome.StageQuery, err)
		return
	}
	top, err := h.validator.ValidateLimit(r.URL.Query().Get("top"), 0, maxTop)
	if err != nil {
		badRequest(w, r, outcome.StageQuery, err)
		return
	}
	respondWithResult(w, r, h.tools.Compare(r.Context(), tools.CompareArgs{
		Text: r.URL.Query().Get("q"),
		Year: year,
		Top:  top,
	}))
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// HealthCheck serves GET /health
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck(r.Context())

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if start := h.store.GetServerStartTime(); !start.IsZero() {
		uptime = time.Since(start)
	}

	RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}
