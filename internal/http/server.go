// Package http exposes the fee engine as a JSON API: fee administration, the
// household registry, payment intake, obligation lookups, reports and the
// notification inbox.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bluemoon/internal/cache"
	"bluemoon/internal/core"
	"bluemoon/internal/log"
	"bluemoon/internal/middleware/ratelimit"
	"bluemoon/internal/services"
	"bluemoon/internal/storage"
)

// FeeAdmin covers the fee lifecycle: creation, lookup and the active toggle.
type FeeAdmin interface {
	CreateFee(ctx context.Context, fee core.FeeDefinition) (core.FeeDefinition, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Get(ctx context.Context, id int64) (core.FeeDefinition, error)
	List(ctx context.Context) ([]core.FeeDefinition, error)
}

// PaymentIntake records validated ledger entries.
type PaymentIntake interface {
	RecordPayment(ctx context.Context, in services.PaymentInput) (core.PaymentRecord, core.ObligationStatus, error)
}

// Registry is the household and member store behind the registry endpoints.
type Registry interface {
	CreateHousehold(ctx context.Context, h core.Household) (core.Household, error)
	HouseholdByID(ctx context.Context, id int64) (core.Household, error)
	ListHouseholds(ctx context.Context) ([]core.Household, error)
	SetHouseholdStatus(ctx context.Context, id int64, status core.HouseholdState) error
	AddMember(ctx context.Context, m core.Member) (core.Member, error)
	MembersOf(ctx context.Context, householdID int64) ([]core.Member, error)
	SetMemberLifeStatus(ctx context.Context, id int64, status core.LifeStatus, leftAt *time.Time) error
}

// Inbox reads rendered notifications back to their audience.
type Inbox interface {
	InboxFor(ctx context.Context, userID int64, limit int) ([]storage.InboxMessage, error)
	MarkInboxRead(ctx context.Context, id string) error
}

// Dependencies carries everything the API serves, behind narrow interfaces.
type Dependencies struct {
	Fees       FeeAdmin
	Payments   PaymentIntake
	Registry   Registry
	Inbox      Inbox
	Snapshots  services.SnapshotLoader
	Classifier *services.CompletionClassifier
	Reports    *services.ReportAggregator
}

type Server struct {
	http.Server

	fees       FeeAdmin
	payments   PaymentIntake
	registry   Registry
	inbox      Inbox
	snapshots  services.SnapshotLoader
	classifier *services.CompletionClassifier
	reports    *services.ReportAggregator

	logger      *log.Logger
	rateLimiter *ratelimit.Limiter

	// Rendered report payloads, purged on every successful mutation.
	reportCache *cache.LRU[[]byte]

	stopCacheSweep chan struct{}
	shutdownOnce   sync.Once
}

type contextKey string

const requestIDKey contextKey = "request_id"

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		fees:           deps.Fees,
		payments:       deps.Payments,
		registry:       deps.Registry,
		inbox:          deps.Inbox,
		snapshots:      deps.Snapshots,
		classifier:     deps.Classifier,
		reports:        deps.Reports,
		logger:         log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP),
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		reportCache:    cache.New[[]byte](128, time.Minute),
		stopCacheSweep: make(chan struct{}),
	}

	go s.sweepCache()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/fees", s.withAPIHeaders(s.handleFees))
	mux.HandleFunc("/fees/", s.withAPIHeaders(s.handleFeeByID))
	mux.HandleFunc("/households", s.withAPIHeaders(s.handleHouseholds))
	mux.HandleFunc("/households/", s.withAPIHeaders(s.handleHouseholdByID))
	mux.HandleFunc("/members/", s.withAPIHeaders(s.handleMemberByID))
	mux.HandleFunc("/payments", s.withAPIHeaders(s.handleCreatePayment))
	mux.HandleFunc("/obligations", s.withAPIHeaders(s.handleObligations))
	mux.HandleFunc("/reports/overview", s.withAPIHeaders(s.handleOverviewReport))
	mux.HandleFunc("/reports/by-fee-type", s.withAPIHeaders(s.handleFeeTypeReport))
	mux.HandleFunc("/reports/monthly", s.withAPIHeaders(s.handleMonthlyReport))
	mux.HandleFunc("/reports/comparison", s.withAPIHeaders(s.handleComparisonReport))
	mux.HandleFunc("/reports/household-status", s.withAPIHeaders(s.handleHouseholdStatusReport))
	mux.HandleFunc("/inbox", s.withAPIHeaders(s.handleInbox))
	mux.HandleFunc("/inbox/", s.withAPIHeaders(s.handleInboxRead))

	return s
}

// sweepCache drops expired report entries in the background.
func (s *Server) sweepCache() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.reportCache.CleanExpired(); n > 0 {
				s.logger.Debug("Report cache cleanup completed", "entries_removed", n)
			}
		case <-s.stopCacheSweep:
			return
		}
	}
}

// Shutdown stops the background goroutines before draining the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.stopCacheSweep)
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withAPIHeaders adds request tracing, rate limiting on mutations and the
// baseline response headers.
func (s *Server) withAPIHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ip := clientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		logger := s.logger.With(log.FieldRequestID, requestID)
		log.LogHTTPStart(ctx, logger, r, ip)

		if r.Method != http.MethodGet && !s.rateLimiter.Allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		// A successful mutation invalidates every cached report.
		if r.Method != http.MethodGet && rw.statusCode < 400 {
			s.reportCache.Purge()
		}

		log.LogHTTPEnd(ctx, logger, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

// clientIP extracts the caller address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady verifies the storage layer answers before reporting ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.snapshots != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := s.snapshots.Snapshot(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
