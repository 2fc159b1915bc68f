package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/transport/ws"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/pkg/logger"
)

func NewRouter(h *Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(requestLogger)

	// WS endpoint; credentials checked inside before admission
	r.Get("/ws/rooms/{id}", wsServer.HandleWS)

	r.Route("/rooms/{id}", func(rr chi.Router) {
		rr.Use(middlewareChi.Timeout(30 * time.Second))
		rr.Get("/participants", h.GetParticipants)
		rr.Delete("/session", h.TerminateSession)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middlewareChi.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.Status()),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		}
		attrs = append(attrs, logger.AttrsFromCtx(r.Context())...)
		slog.LogAttrs(r.Context(), slog.LevelInfo, "http request", attrs...)
	})
}
