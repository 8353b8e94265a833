package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the streamable HTTP surface.
type HTTPOptions struct {
	BearerToken string  // empty disables authentication
	RateLimit   float64 // requests per second on /mcp, 0 disables
	RateBurst   int
	Logger      *zap.SugaredLogger
}

// Handler serves the MCP endpoint at /mcp and a health probe at /health.
func Handler(srv *mcp.Server, opts HTTPOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	var h http.Handler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return srv
	}, nil)
	if opts.BearerToken != "" {
		h = bearerAuth(opts.BearerToken, h)
	}
	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		h = rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst), h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("/mcp", h)
	return logRequests(opts.Logger, mux)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func bearerAuth(token string, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="archimodel"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":             "invalid_token",
				"error_description": "missing or invalid bearer token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rateLimit(l *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func logRequests(log *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debugw("HTTP request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr, "duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
