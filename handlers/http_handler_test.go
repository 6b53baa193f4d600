package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giygas/drugcost-api/catalog"
	"github.com/giygas/drugcost-api/catalogtest"
	"github.com/giygas/drugcost-api/data"
	"github.com/giygas/drugcost-api/health"
	"github.com/giygas/drugcost-api/interfaces"
	"github.com/giygas/drugcost-api/outcome"
	"github.com/giygas/drugcost-api/pipeline"
	"github.com/giygas/drugcost-api/tools"
	"github.com/giygas/drugcost-api/validation"
)

func newTestRouter(set *interfaces.CatalogSet) http.Handler {
	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now().Add(-time.Minute))
	if set != nil {
		store.Swap(set)
	}
	validator := validation.NewDataValidator()
	h := NewHTTPHandler(
		tools.New(store, pipeline.DefaultOptions(), validator),
		store,
		validator,
		health.NewHealthChecker(store, false),
	)

	r := chi.NewRouter()
	r.Get("/v1/latest-year", h.LatestYear)
	r.Get("/v1/identity/{name}", h.MatchIdentity)
	r.Get("/v1/equivalents", h.FindEquivalents)
	r.Get("/v1/costs/{name}", h.LookupCosts)
	r.Get("/v1/generic-candidates/{ingredient}", h.GenericCandidates)
	r.Get("/v1/compare", h.Compare)
	r.Get("/health", h.HealthCheck)
	return r
}

func lipitorRouter() http.Handler {
	c := catalogtest.Lipitor()
	return newTestRouter(&interfaces.CatalogSet{Identity: c, Cost: c, Backend: catalog.BackendMemory})
}

type result struct {
	OK    bool            `json:"ok"`
	Kind  outcome.Kind    `json:"kind"`
	Stage outcome.Stage   `json:"stage"`
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data"`
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, result) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var res result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("Invalid JSON body %q: %v", rr.Body.String(), err)
	}
	return rr, res
}

func TestToolEndpoints(t *testing.T) {
	router := lipitorRouter()

	testCases := []struct {
		name       string
		target     string
		wantStatus int
		wantOK     bool
		wantKind   outcome.Kind
	}{
		{"latest year", "/v1/latest-year", http.StatusOK, true, ""},
		{"identity", "/v1/identity/Lipitor?strength=20mg", http.StatusOK, true, ""},
		{"identity with limit", "/v1/identity/Lipitor?limit=1", http.StatusOK, true, ""},
		{"identity no match", "/v1/identity/Xyzzy", http.StatusOK, false, outcome.KindNoMatch},
		{"identity bad limit", "/v1/identity/Lipitor?limit=0", http.StatusBadRequest, false, outcome.KindInvalidInput},
		{"identity dangerous strength", "/v1/identity/Lipitor?strength=%3Cscript%3E", http.StatusBadRequest, false, outcome.KindInvalidInput},
		{"equivalents", "/v1/equivalents?ingredient=ATORVASTATIN+CALCIUM&strength=20MG&dosage_form=TABLET&route=ORAL", http.StatusOK, true, ""},
		{"equivalents missing ingredient", "/v1/equivalents?strength=20MG", http.StatusBadRequest, false, outcome.KindInvalidInput},
		{"equivalents bad flag", "/v1/equivalents?ingredient=X&substitutable_only=maybe", http.StatusBadRequest, false, outcome.KindInvalidInput},
		{"costs", "/v1/costs/Atorvastatin%20Calcium?year=2021", http.StatusOK, true, ""},
		{"costs bad year", "/v1/costs/Atorvastatin?year=21", http.StatusBadRequest, false, outcome.KindInvalidInput},
		{"generic candidates", "/v1/generic-candidates/SERTRALINE%20HYDROCHLORIDE", http.StatusOK, true, ""},
		{"compare", "/v1/compare?q=Lipitor+20mg+tablets", http.StatusOK, true, ""},
		{"compare missing query", "/v1/compare", http.StatusBadRequest, false, outcome.KindInvalidInput},
		{"compare no data for year", "/v1/compare?q=Lipitor+20mg&year=2019", http.StatusOK, false, outcome.KindNoDataForYear},
		{"compare bad top", "/v1/compare?q=Lipitor&top=500", http.StatusBadRequest, false, outcome.KindInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr, res := get(t, router, tc.target)
			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			if res.OK != tc.wantOK {
				t.Errorf("Expected ok=%v, got %v (%s)", tc.wantOK, res.OK, res.Error)
			}
			if res.Kind != tc.wantKind {
				t.Errorf("Expected kind %q, got %q", tc.wantKind, res.Kind)
			}
			if got := rr.Header().Get(outcome.Header); got != string(tc.wantKind) {
				t.Errorf("Expected %s header %q, got %q", outcome.Header, tc.wantKind, got)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Unexpected content type %q", ct)
			}
		})
	}
}

func TestCompareEndpoint_Payload(t *testing.T) {
	_, res := get(t, lipitorRouter(), "/v1/compare?q=Lipitor+20mg&top=3")

	var payload struct {
		Comparison struct {
			Year    int `json:"year"`
			Ranking struct {
				Options []struct {
					Name string  `json:"name"`
					Cost float64 `json:"avg_spend_per_dose"`
				} `json:"options"`
			} `json:"ranking"`
		} `json:"comparison"`
		Report string `json:"report"`
	}
	if err := json.Unmarshal(res.Data, &payload); err != nil {
		t.Fatalf("Invalid payload: %v", err)
	}
	if payload.Comparison.Year != 2023 {
		t.Errorf("Expected 2023, got %d", payload.Comparison.Year)
	}
	opts := payload.Comparison.Ranking.Options
	if len(opts) != 1 || opts[0].Name != "ATORVASTATIN CALCIUM" || opts[0].Cost != 0.45 {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if payload.Report == "" {
		t.Error("Expected a rendered report")
	}
}

func TestInfrastructureStatus(t *testing.T) {
	router := newTestRouter(nil)
	rr, res := get(t, router, "/v1/costs/LIPITOR")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if res.Kind != outcome.KindInfrastructure || res.Stage != outcome.StageCosts {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestHealthEndpoint(t *testing.T) {
	testCases := []struct {
		name       string
		router     http.Handler
		wantStatus int
		wantHealth string
	}{
		{"loaded", lipitorRouter(), http.StatusOK, "healthy"},
		{"not loaded", newTestRouter(nil), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()
			tc.router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			var body HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if body.Status != tc.wantHealth {
				t.Errorf("Expected %s, got %s", tc.wantHealth, body.Status)
			}
			if body.UptimeSeconds <= 0 {
				t.Error("Expected a positive uptime")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	expected := map[outcome.Kind]int{
		outcome.KindNone:           http.StatusOK,
		outcome.KindInvalidInput:   http.StatusBadRequest,
		outcome.KindNoMatch:        http.StatusOK,
		outcome.KindNoEquivalents:  http.StatusOK,
		outcome.KindNoDataForYear:  http.StatusOK,
		outcome.KindInfrastructure: http.StatusInternalServerError,
	}
	for kind, status := range expected {
		if got := StatusFor(kind); got != status {
			t.Errorf("StatusFor(%q) = %d, want %d", kind, got, status)
		}
	}
}

func TestFormatUptimeHuman(t *testing.T) {
	testCases := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
		{3*time.Hour + 4*time.Second, "3h 0m 4s"},
		{50 * time.Hour, "2d 2h 0m 0s"},
	}
	for _, tc := range testCases {
		if got := formatUptimeHuman(tc.duration); got != tc.expected {
			t.Errorf("formatUptimeHuman(%v) = %q, want %q", tc.duration, got, tc.expected)
		}
	}
}

func TestEncodedPathParameters(t *testing.T) {
	router := lipitorRouter()

	testCases := []struct {
		name   string
		target string
		field  string
		want   any
	}{
		{
			"semicolon in ingredient",
			"/v1/generic-candidates/AMLODIPINE%20BESYLATE%3B%20ATORVASTATIN%20CALCIUM",
			"candidates",
			[]any{"AMLODIPINE", "ATORVASTATIN", "AMLODIPINE ATORVASTATIN"},
		},
		{
			"slash in ingredient",
			"/v1/generic-candidates/SACUBITRIL%2FVALSARTAN",
			"candidates",
			[]any{"SACUBITRIL", "VALSARTAN", "SACUBITRIL VALSARTAN"},
		},
		{
			"slash in cost name",
			"/v1/costs/ATORVASTATIN%2FEZETIMIBE",
			"name",
			"ATORVASTATIN/EZETIMIBE",
		},
		{
			"plain spaces",
			"/v1/costs/Atorvastatin%20Calcium",
			"name",
			"Atorvastatin Calcium",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr, res := get(t, router, tc.target)
			if rr.Code != http.StatusOK || !res.OK {
				t.Fatalf("Expected success, got %d: %s", rr.Code, rr.Body.String())
			}
			var data map[string]any
			if err := json.Unmarshal(res.Data, &data); err != nil {
				t.Fatalf("Invalid data: %v", err)
			}
			if !reflect.DeepEqual(data[tc.field], tc.want) {
				t.Errorf("Expected %s=%v, got %v", tc.field, tc.want, data[tc.field])
			}
		})
	}
}

func TestPathParam(t *testing.T) {
	request := func(rawPath, value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/v1/costs/x", nil)
		req.URL.RawPath = rawPath
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("name", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	// Without a raw path chi already matched on the decoded path.
	got, err := pathParam(request("", "CLOBETASOL 0.05%"), "name")
	if err != nil || got != "CLOBETASOL 0.05%" {
		t.Errorf("pathParam() = %q, %v", got, err)
	}

	got, err = pathParam(request("/v1/costs/A%2FB", "A%2FB"), "name")
	if err != nil || got != "A/B" {
		t.Errorf("pathParam() = %q, %v", got, err)
	}

	if _, err := pathParam(request("/v1/costs/%ZZ", "%ZZ"), "name"); err == nil {
		t.Error("Expected an error for a malformed escape")
	}

	rr := httptest.NewRecorder()
	h := NewHTTPHandler(nil, nil, validation.NewDataValidator(), nil)
	h.LookupCosts(rr, request("/v1/costs/%ZZ", "%ZZ"))
	if rr.Code != http.StatusBadRequest || rr.Header().Get(outcome.Header) != string(outcome.KindInvalidInput) {
		t.Errorf("Expected 400 invalid_input, got %d %q", rr.Code, rr.Header().Get(outcome.Header))
	}
}
