// Package handlers provides HTTP request handlers for the drug cost API
// endpoints. Each tool endpoint validates its query parameters, runs the tool
// and writes its Result as JSON.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/drugcost-api/logging"
	"github.com/giygas/drugcost-api/outcome"
	"github.com/giygas/drugcost-api/tools"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// StatusFor maps a failure kind to the HTTP status of its response. Domain
// outcomes such as NoMatch are successful requests.
func StatusFor(kind outcome.Kind) int {
	switch kind {
	case outcome.KindInvalidInput:
		return http.StatusBadRequest
	case outcome.KindInfrastructure:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// respondWithResult writes a tool result with its mapped status.
func respondWithResult[T any](w http.ResponseWriter, r *http.Request, res tools.Result[T]) {
	if !res.OK {
		attrs := []any{"path", r.URL.Path, "kind", res.Kind, "stage", res.Stage, "error", res.Error}
		switch res.Kind {
		case outcome.KindInfrastructure:
			logging.Error("Tool failed", attrs...)
		case outcome.KindInvalidInput:
			logging.Warn("Unusual user input", attrs...)
		}
		w.Header().Set(outcome.Header, string(res.Kind))
	}
	RespondWithJSON(w, StatusFor(res.Kind), res)
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
