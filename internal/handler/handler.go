package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angeloszaimis/backup-config/internal/render"
)

const (
	RequestIDHeader = "X-Request-Id"
	maxBodyBytes    = 1 << 20
)

// Renderer is the part of render.Renderer the handler needs.
type Renderer interface {
	Render(ctx context.Context, req render.Request) (render.Output, error)
}

type RenderHandler struct {
	logger   *slog.Logger
	renderer Renderer
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func NewRenderHandler(logger *slog.Logger, renderer Renderer) *RenderHandler {
	return &RenderHandler{
		logger:   logger,
		renderer: renderer,
	}
}

// ServeHTTP renders the job named by the {job} path value from a YAML input
// body. Successful renders return every file as one multi-document YAML
// stream, each document preceded by a comment naming its file.
func (h *RenderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	job := r.PathValue("job")
	requestID := w.Header().Get(RequestIDHeader)

	logger := h.logger.With(
		slog.String("request_id", requestID),
		slog.String("job", job))

	logger.Info("Received render request",
		slog.String("from", extractClientIP(r)),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("user_agent", r.UserAgent()))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Warn("Reading render input failed", slog.Any("err", err))
		http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	input, err := render.ParseInput(body)
	if err != nil {
		logger.Warn("Malformed render input", slog.Any("err", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out, err := h.renderer.Render(r.Context(), render.Request{Job: job, Input: input})
	if err != nil {
		status := StatusFor(err)
		logger.Warn("Render failed",
			slog.Int("status", status),
			slog.String("reason", render.Reason(err)),
			slog.Any("err", err))
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(joinDocuments(out.Files))

	logger.Info("Rendered job", slog.Int("files", len(out.Files)))
}

// StatusFor maps a render error to an HTTP status.
func StatusFor(err error) int {
	switch render.Reason(err) {
	case render.ReasonMissingProperty, render.ReasonTypeMismatch, render.ReasonNoEndpoints:
		return http.StatusUnprocessableEntity
	case render.ReasonInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func joinDocuments(files []render.File) []byte {
	var buf bytes.Buffer
	for i, f := range files {
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.WriteString("# " + f.Name + "\n")
		buf.Write(f.Content)
	}
	return buf.Bytes()
}

// WithRequestID tags every request and response with an id, reusing the
// caller's X-Request-Id when it sent one.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// AccessLog logs the status of every completed request.
func AccessLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		logger.Debug("Request completed",
			slog.String("request_id", w.Header().Get(RequestIDHeader)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.statusCode))
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}
