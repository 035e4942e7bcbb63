package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"chat-relay/internal/config"
	"chat-relay/internal/relay"
	"chat-relay/internal/types"
	"chat-relay/internal/web"
)

// maxAskBody bounds the JSON body of POST /ask.
const maxAskBody = 1 << 20

type Server struct {
	router *chi.Mux
	relay  *relay.Relay
	cfg    config.Config
	page   []byte
	logger *log.Logger
}

func NewServer(cfg config.Config, logger *log.Logger) (*Server, error) {
	rl, err := relay.New(relay.Options{
		URL:     cfg.UpstreamURL,
		APIKey:  cfg.UpstreamAPIKey,
		Model:   cfg.Model,
		Timeout: cfg.RequestTimeout,
	}, logger.WithPrefix("relay"))
	if err != nil {
		return nil, fmt.Errorf("failed to create relay: %w", err)
	}

	settings, err := web.LoadSettings(cfg.PageConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load page settings: %w", err)
	}
	page, err := web.Render(settings)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(logger.WithPrefix("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	s := &Server{
		router: r,
		relay:  rl,
		cfg:    cfg,
		page:   page,
		logger: logger,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.Get("/", s.handleIndex)
	s.router.Post("/ask", s.handleAsk)
	s.router.Get("/health", s.handleHealth)
}

func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.HealthResponse{Status: "ok", Model: s.relay.Model()})
}

// handleAsk always answers 200 with text/plain. Failures are reported in the
// body as "Error: ...".
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	ex := types.ChatExchange{Model: s.relay.Model()}
	start := time.Now()

	var req types.AskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAskBody)).Decode(&req); err != nil {
		ex.Err = errors.New("invalid JSON body")
		s.logger.Warn("rejecting ask body", "err", err)
		s.writeText(w, ex.Body())
		return
	}
	ex.Prompt = req.Prompt

	ex.Reply, ex.Err = s.relay.Complete(r.Context(), ex.Prompt)
	ex.Elapsed = time.Since(start)

	if ex.Err != nil {
		kind := relay.KindRequest
		var f *relay.Failure
		if errors.As(ex.Err, &f) {
			kind = f.Kind
		}
		s.logger.Error("relay failed", "model", ex.Model, "kind", kind, "err", ex.Err, "elapsed", ex.Elapsed)
	} else {
		s.logger.Info("relayed prompt", "model", ex.Model,
			"prompt_len", len(ex.Prompt), "reply_len", len(ex.Reply), "elapsed", ex.Elapsed)
	}
	s.writeText(w, ex.Body())
}

func (s *Server) writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}
