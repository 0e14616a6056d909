// internal/adapters/httpapi/server.go
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"trustscan/internal/core/domain"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/rate"
)

// Valores por defecto del servidor.
const (
	DefaultAddr               = ":8080"
	DefaultRateLimitPerMinute = 10
	DefaultShutdownTimeout    = 15 * time.Second

	// maxBodyBytes límite del cuerpo de POST /api/scan
	maxBodyBytes = 64 << 10
)

// Scanner es lo que la API necesita del servicio de escaneo.
type Scanner interface {
	Scan(ctx context.Context, rawURL string) (*domain.ScanReport, error)
	Report(ctx context.Context, id string) (*domain.ScanReport, error)
	VerifiedBadge(domainName string) (*domain.VerifiedBadge, bool)
}

// Config configura el servidor HTTP.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CORSOrigin         string
	ShutdownTimeout    time.Duration
	Logger             logx.Logger
}

// Server expone el escaneo sobre HTTP.
type Server struct {
	cfg     Config
	scanner Scanner
	limiter *rate.KeyedLimiter
	router  chi.Router
	logger  logx.Logger
}

// New crea el servidor y registra las rutas.
func New(scanner Scanner, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	s := &Server{
		cfg:     cfg,
		scanner: scanner,
		limiter: rate.NewKeyed(cfg.RateLimitPerMinute),
		router:  chi.NewRouter(),
		logger:  cfg.Logger.With("component", "httpapi"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)
	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Options("/scan", s.optionsHandler("POST"))
		r.With(s.rateLimitMiddleware).Post("/scan", s.handleScan)

		r.Options("/scan/{id}", s.optionsHandler("GET"))
		r.Get("/scan/{id}", s.handleGetScan)

		r.Options("/verified/{domain}", s.optionsHandler("GET"))
		r.Get("/verified/{domain}", s.handleVerified)
	})
}

// ServeHTTP implementa http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer crea un *http.Server listo para ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Un escaneo completo puede tardar hasta el deadline global
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// ListenAndServe sirve hasta que ctx se cancela y luego apaga el
// servidor esperando a las peticiones en curso.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	}
	return s.serve(ctx, srv, ln)
}

func (s *Server) serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	stopSweep := s.startLimiterSweep(time.Minute)
	defer stopSweep()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http api", "timeout", s.cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startLimiterSweep elimina periódicamente los buckets inactivos.
func (s *Server) startLimiterSweep(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.limiter.Sweep(); n > 0 {
					s.logger.Debug("rate limiter buckets swept", "count", n)
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}
