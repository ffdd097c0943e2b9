// Package webhook serves the WhatsApp Cloud API webhook: the subscription
// verification handshake and the inbound message endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Addr        string `envconfig:"ADDR" split_words:"true" default:":3000"`
	VerifyToken string `envconfig:"VERIFY_TOKEN" split_words:"true" required:"true"`
}

// Flow consumes one inbound message end to end.
type Flow interface {
	HandleMessage(ctx context.Context, userID, text string) error
}

// Handler terminates the webhook transport. The POST handler acks the
// transport immediately and processes each message on its own goroutine, so
// a slow ledger fetch for one user never delays the ack or other users.
type Handler struct {
	flow        Flow
	verifyToken string
}

func NewHandler(cfg Config, flow Flow) (*Handler, error) {
	if flow == nil {
		return nil, errors.New("flow is required")
	}
	token := strings.TrimSpace(cfg.VerifyToken)
	if token == "" {
		return nil, errors.New("verify token is required")
	}
	return &Handler{flow: flow, verifyToken: token}, nil
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/webhook", h.verify)
	r.Post("/webhook", h.receive)
	return r
}

// verify answers Meta's subscription handshake by echoing hub.challenge.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	w.WriteHeader(http.StatusBadRequest)
}

// Inbound payload shapes, trimmed to the fields the bot reads.
type inboundEvent struct {
	Object string         `json:"object"`
	Entry  []inboundEntry `json:"entry"`
}

type inboundEntry struct {
	Changes []inboundChange `json:"changes"`
}

type inboundChange struct {
	Value inboundValue `json:"value"`
}

type inboundValue struct {
	Messages []inboundMessage `json:"messages"`
}

type inboundMessage struct {
	From string `json:"from"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var event inboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Warn().Err(err).Msg("malformed webhook payload")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if event.Object == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.From == "" {
					continue
				}
				text := ""
				if msg.Text != nil {
					text = msg.Text.Body
				}
				go h.process(msg.From, text)
			}
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) process(userID, text string) {
	ctx := context.Background()
	if err := h.flow.HandleMessage(ctx, userID, text); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("message handling failed")
	}
}

// Serve runs the webhook server until ctx is canceled, then shuts down
// gracefully.
func Serve(ctx context.Context, cfg Config, h *Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
