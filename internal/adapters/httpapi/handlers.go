// internal/adapters/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/validator"
)

// Mensajes de error expuestos al cliente.
const (
	msgRateLimited   = "Rate limit exceeded. Please try again later."
	msgURLRequired   = "URL is required"
	msgScanFailed    = "Failed to scan URL"
	msgNotFound      = "Scan not found"
	msgInvalidJSON   = "Invalid JSON body"
	msgNotVerified   = "Domain is not verified"
	msgInternalError = "Internal server error"
)

// scanRequest cuerpo de POST /api/scan.
type scanRequest struct {
	URL string `json:"url"`
}

// verifiedResponse respuesta de GET /api/verified/{domain}.
type verifiedResponse struct {
	Domain   string                `json:"domain"`
	Verified bool                  `json:"verified"`
	Badge    *domain.VerifiedBadge `json:"badge,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var body scanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	rawURL := strings.TrimSpace(body.URL)
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, msgURLRequired)
		return
	}

	report, err := s.scanner.Scan(r.Context(), rawURL)
	if err != nil {
		if validator.IsScanValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("scan failed", "url", rawURL, "error", err.Error())
		writeError(w, http.StatusInternalServerError, msgScanFailed)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := s.scanner.Report(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, msgNotFound)
			return
		}
		s.logger.Warn("loading report", "id", id, "error", err.Error())
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleVerified(w http.ResponseWriter, r *http.Request) {
	name := validator.NormalizeDomain(chi.URLParam(r, "domain"))

	badge, ok := s.scanner.VerifiedBadge(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, verifiedResponse{Domain: name})
		return
	}
	writeJSON(w, http.StatusOK, verifiedResponse{Domain: name, Verified: true, Badge: badge})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
