package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookServer receives updates pushed by Telegram.
type WebhookServer struct {
	listen string
	path   string
	secret string
	queue  Enqueuer
	logger *zap.Logger
}

// NewWebhookServer creates a webhook server. An empty secret disables the
// header check.
func NewWebhookServer(listen, path, secret string, queue Enqueuer, logger *zap.Logger) *WebhookServer {
	return &WebhookServer{listen: listen, path: path, secret: secret, queue: queue, logger: logger}
}

// Handler returns the HTTP routes.
func (s *WebhookServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Post(s.path, s.handleUpdate)

	return r
}

func (s *WebhookServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			s.logger.Warn("webhook call with bad secret", zap.String("remote", r.RemoteAddr))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	var u Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&u); err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}

	ev, ok := ToEvent(u)
	if !ok {
		// Acknowledge so Telegram does not redeliver it.
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := s.queue.Enqueue(r.Context(), ev); err != nil {
		s.logger.Warn("failed to enqueue update", zap.Int64("update_id", u.UpdateID), zap.Error(err))
		http.Error(w, "busy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *WebhookServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("webhook server listening", zap.String("addr", s.listen), zap.String("path", s.path))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
