// Package server exposes an item source as the paged HTTP API consumed by
// source/httpsource.
//
// Routes:
//   - GET /healthz: liveness probe
//   - GET /items?start=N&count=M: a JSON array of M items with ids N..N+M-1
//
// Errors are JSON objects of the form {"code": "...", "message": "..."}.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	werrors "github.com/idilsaglam/waterfall/internal/errors"
	"github.com/idilsaglam/waterfall/internal/source"
)

// DefaultMaxCount bounds a single page.
const DefaultMaxCount = 100

// Options configure the handler.
type Options struct {
	Token    string // required bearer token; empty disables auth
	MaxCount int
	Logger   *log.Logger
}

type errorBody struct {
	Code    werrors.Code `json:"code"`
	Message string       `json:"message"`
}

// New builds the router.
func New(src source.Source, opts Options) http.Handler {
	if opts.MaxCount < 1 {
		opts.MaxCount = DefaultMaxCount
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(opts.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	r.Group(func(r chi.Router) {
		if opts.Token != "" {
			r.Use(requireToken(opts.Token))
		}
		r.Get("/items", itemsHandler(src, opts.MaxCount))
	})
	return r
}

func itemsHandler(src source.Source, maxCount int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := intParam(r, "start", 1)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		count, err := intParam(r, "count", 20)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if count > maxCount {
			writeError(w, http.StatusBadRequest,
				werrors.New(werrors.ErrCodeInvalidInput, "count %d exceeds limit %d", count, maxCount))
			return
		}
		if err := source.CheckRequest(count, start); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		items, err := src.Batch(r.Context(), count, start)
		if err != nil {
			status := http.StatusServiceUnavailable
			if werrors.Is(err, werrors.ErrCodeInvalidInput) {
				status = http.StatusBadRequest
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, werrors.New(werrors.ErrCodeInvalidInput, "%s: not a number: %s", name, raw)
	}
	return n, nil
}

func requireToken(token string) func(http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, werrors.New(werrors.ErrCodeInvalidInput, "missing or invalid token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("request",
				"id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.RequestURI(),
				"status", ww.Status(),
				"elapsed", time.Since(start).Round(time.Microsecond))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := werrors.GetCode(err)
	if code == "" {
		code = werrors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Message: werrors.UserMessage(err)})
}

// Serve runs h on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler, l *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	l.Info("serving items", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	l.Info("server stopped")
	return nil
}
