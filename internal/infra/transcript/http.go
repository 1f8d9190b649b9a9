package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"voice-home/internal/domain"
)

const queueSize = 10

// HTTPSource receives recognition events from a browser or a voice
// platform webhook and queues them for the assistant.
type HTTPSource struct {
	addr        string
	server      *http.Server
	queue       chan domain.Transcript
	logger      *slog.Logger
	mu          sync.Mutex
	running     bool
	mux         *http.ServeMux
	closeOnce   sync.Once
	rateLimiter *RateLimiter
	authToken   string
}

func NewHTTPSource(addr string, authToken string, logger *slog.Logger) *HTTPSource {
	h := &HTTPSource{
		addr:        addr,
		queue:       make(chan domain.Transcript, queueSize),
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(30, time.Minute),
		authToken:   authToken,
	}
	h.mux.HandleFunc("POST /transcript", h.rateLimiter.Middleware(h.handleTranscript))
	h.mux.HandleFunc("POST /text", h.rateLimiter.Middleware(h.handleText))
	h.mux.HandleFunc("POST /alexa", h.rateLimiter.Middleware(h.handleAlexa))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPSource) Name() string {
	return "http"
}

func (h *HTTPSource) Start(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("transcript server starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("transcript server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPSource) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.queue)
	})
	h.running = false
	return nil
}

func (h *HTTPSource) NextTranscript(ctx context.Context) (domain.Transcript, error) {
	select {
	case <-ctx.Done():
		return domain.Transcript{}, ctx.Err()
	case t, ok := <-h.queue:
		if !ok {
			return domain.Transcript{}, fmt.Errorf("transcript queue closed")
		}
		return t, nil
	}
}

func (h *HTTPSource) Handler() http.Handler {
	return h.mux
}

// Inject queues a transcript without going through HTTP. It reports false
// when the queue is full.
func (h *HTTPSource) Inject(t domain.Transcript) bool {
	select {
	case h.queue <- t:
		return true
	default:
		return false
	}
}

type transcriptRequest struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence"`
	Final      *bool    `json:"final"`
	Error      string   `json:"error"`
}

func (h *HTTPSource) handleTranscript(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req transcriptRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 8*1024)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	t := domain.Transcript{
		Text:       req.Text,
		Confidence: 1,
		Final:      true,
		Error:      req.Error,
	}
	if req.Confidence != nil {
		t.Confidence = *req.Confidence
	}
	if req.Final != nil {
		t.Final = *req.Final
	}

	if t.Error == "" && strings.TrimSpace(t.Text) == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		http.Error(w, "confidence must be within [0,1]", http.StatusBadRequest)
		return
	}

	h.enqueue(w, t, "received transcript via HTTP")
}

func (h *HTTPSource) handleText(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r, 1024)
	if !ok {
		return
	}
	h.enqueue(w, domain.Transcript{Text: text, Confidence: 1, Final: true}, "received text command via HTTP")
}

func (h *HTTPSource) handleAlexa(w http.ResponseWriter, r *http.Request) {
	if h.authToken != "" {
		token := r.Header.Get("X-Auth-Token")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != h.authToken {
			h.logger.Warn("unauthorized alexa request", "remote_addr", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	text, ok := readText(w, r, 4096)
	if !ok {
		return
	}
	h.enqueue(w, domain.Transcript{Text: text, Confidence: 1, Final: true}, "received command from Alexa")
}

func readText(w http.ResponseWriter, r *http.Request, limit int64) (string, bool) {
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return "", false
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return "", false
	}
	return text, true
}

func (h *HTTPSource) enqueue(w http.ResponseWriter, t domain.Transcript, msg string) {
	if !h.Inject(t) {
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
		return
	}
	h.logger.Info(msg, "text", t.Text, "final", t.Final, "confidence", t.Confidence)
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "received", "text": t.Text})
}

func (h *HTTPSource) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	running := h.running
	queued := len(h.queue)
	h.mu.Unlock()

	status := "ok"
	code := http.StatusOK
	if !running {
		status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{"status": status, "running": running, "queue_size": queued})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
