// internal/testutil/mocks.go
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Nota: los mocks específicos de domain/ports están en sus respectivos paquetes.
// Este archivo contiene solo utilidades genéricas sin dependencias circulares.

// RecordedRequest es una petición capturada por RecordingServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// RecordingServer es un servidor httptest que responde con Handler y
// guarda cada petición recibida.
type RecordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewRecordingServer levanta un servidor de prueba que se cierra al
// terminar el test.
func NewRecordingServer(t *testing.T, handler http.HandlerFunc) *RecordingServer {
	t.Helper()

	rs := &RecordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rs.mu.Lock()
		rs.requests = append(rs.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		rs.mu.Unlock()

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		handler(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

// Requests retorna una copia de las peticiones recibidas.
func (rs *RecordingServer) Requests() []RecordedRequest {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	out := make([]RecordedRequest, len(rs.requests))
	copy(out, rs.requests)
	return out
}

// CallCount retorna el número de peticiones recibidas.
func (rs *RecordingServer) CallCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

// StaticHandler responde siempre con el mismo status y cuerpo.
func StaticHandler(status int, contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}
