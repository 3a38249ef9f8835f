/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"chainguard.dev/chatops/agents/chatmodel"
	"chainguard.dev/chatops/agents/conversation"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CookieName holds the browser's session id.
const CookieName = "chatops_session"

const maxRequestBodyBytes = 1 << 20

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Settings are the per-browser overrides of the server's configuration.
// Empty fields mean "use the server default".
type Settings struct {
	GitHubRepo   string `json:"github_repo"`
	GitHubToken  string `json:"github_token"`
	AsanaProject string `json:"asana_project"`
	AsanaToken   string `json:"asana_token"`
}

// Chat is the conversation a browser talks to.
type Chat interface {
	Send(ctx context.Context, text string, onChunk chatmodel.StreamFunc) (string, error)
	Turns() []conversation.Turn
}

// SessionFactory starts a conversation using settings.
type SessionFactory func(ctx context.Context, settings Settings) (Chat, error)

type browser struct {
	settings Settings
	chat     Chat
}

const (
	// DefaultMaxSessions caps the sessions held in memory. The least
	// recently used one is dropped to make room.
	DefaultMaxSessions = 1000
	// DefaultSessionIdle is how long an unused session is kept.
	DefaultSessionIdle = 12 * time.Hour
)

// Server serves the chat UI. Sessions live in memory, keyed by cookie.
type Server struct {
	newSession  SessionFactory
	title       string
	maxSessions uint64
	idle        time.Duration
	sessions    *ttlcache.Cache[string, *browser]
}

// Option configures a Server.
type Option func(*Server) error

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) error {
		if title == "" {
			return errors.New("title cannot be empty")
		}
		s.title = title
		return nil
	}
}

// WithMaxSessions caps the sessions held in memory.
func WithMaxSessions(n int) Option {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("max sessions must be positive, got %d", n)
		}
		s.maxSessions = uint64(n)
		return nil
	}
}

// WithSessionIdle sets how long an unused session is kept.
func WithSessionIdle(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return fmt.Errorf("session idle time must be positive, got %v", d)
		}
		s.idle = d
		return nil
	}
}

// NewServer creates a Server that starts sessions with newSession. Close
// stops its session expiry.
func NewServer(newSession SessionFactory, opts ...Option) (*Server, error) {
	if newSession == nil {
		return nil, errors.New("session factory cannot be nil")
	}
	s := &Server{
		newSession:  newSession,
		title:       "Chat with AI",
		maxSessions: DefaultMaxSessions,
		idle:        DefaultSessionIdle,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	s.sessions = ttlcache.New[string, *browser](
		ttlcache.WithTTL[string, *browser](s.idle),
		ttlcache.WithCapacity[string, *browser](s.maxSessions),
	)
	s.sessions.OnEviction(func(context.Context, ttlcache.EvictionReason, *ttlcache.Item[string, *browser]) {
		activeSessions.Dec()
	})
	go s.sessions.Start()
	return s, nil
}

// Close stops expiring sessions.
func (s *Server) Close() {
	s.sessions.Stop()
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/settings", s.handleSettings)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// lookup returns the caller's live session and its id. Reading a session
// keeps it alive.
func (s *Server) lookup(r *http.Request) (string, *browser) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", nil
	}
	item := s.sessions.Get(c.Value)
	if item == nil {
		return "", nil
	}
	return c.Value, item.Value()
}

// browserFor returns the caller's session, starting one (and setting the
// cookie) when the request carries no live id.
func (s *Server) browserFor(w http.ResponseWriter, r *http.Request) (*browser, error) {
	if _, b := s.lookup(r); b != nil {
		return b, nil
	}

	chat, err := s.newSession(r.Context(), Settings{})
	if err != nil {
		return nil, err
	}
	b := &browser{chat: chat}
	s.store(w, "", b)
	return b, nil
}

// store saves b under id and sets the cookie. An empty id starts a new
// session under a freshly minted id.
func (s *Server) store(w http.ResponseWriter, id string, b *browser) {
	if id == "" {
		id = uuid.NewString()
		activeSessions.Inc()
	}
	s.sessions.Set(id, b, ttlcache.DefaultTTL)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type turnView struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ToolName string `json:"tool_name,omitempty"`
}

func views(turns []conversation.Turn) []turnView {
	out := make([]turnView, 0, len(turns))
	for _, t := range turns {
		if t.Role == conversation.RoleAssistant && t.Content == "" && len(t.ToolCalls) > 0 {
			names := make([]string, 0, len(t.ToolCalls))
			for _, call := range t.ToolCalls {
				names = append(names, call.Name)
			}
			out = append(out, turnView{Role: string(t.Role), Content: "Calling " + strings.Join(names, ", ")})
			continue
		}
		out = append(out, turnView{Role: string(t.Role), Content: t.Content, ToolName: t.ToolName})
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var settings Settings
	var turns []conversation.Turn
	if _, b := s.lookup(r); b != nil {
		settings, turns = b.settings, b.chat.Turns()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct {
		Title        string
		GitHubRepo   string
		AsanaProject string
		Turns        []turnView
	}{
		Title:        s.title,
		GitHubRepo:   settings.GitHubRepo,
		AsanaProject: settings.AsanaProject,
		Turns:        views(turns),
	}); err != nil {
		clog.FromContext(r.Context()).With("error", err).Error("Failed to render chat page")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var turns []conversation.Turn
	if _, b := s.lookup(r); b != nil {
		turns = b.chat.Turns()
	}
	writeJSON(w, http.StatusOK, views(turns))
}

// handleSettings replaces the caller's session with one built from the
// posted settings. The conversation starts over.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var settings Settings
	if err := decodeJSONBody(w, r, &settings); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}

	chat, err := s.newSession(r.Context(), settings)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	// Only ids this server issued and still holds are reused.
	id, _ := s.lookup(r)
	s.store(w, id, &browser{settings: settings, chat: chat})

	clog.FromContext(r.Context()).With("github_repo", settings.GitHubRepo).
		With("asana_project", settings.AsanaProject).
		Info("Session settings updated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
}

type doneEvent struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// handleChat streams the reply as server-sent events: one "chunk" event per
// text delta and a final "done" event with the full text.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log := clog.FromContext(r.Context())

	var req chatRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeErr(w, http.StatusBadRequest, "message cannot be empty")
		return
	}
	b, err := s.browserFor(w, r)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErr(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, data any) {
		if err := writeEvent(w, event, data); err != nil {
			log.With("error", err).Warn("Failed to write event")
			return
		}
		flusher.Flush()
	}

	start := time.Now()
	text, err := b.chat.Send(r.Context(), strings.TrimSpace(req.Message), func(chunk string) {
		send("chunk", chunk)
	})

	outcome := outcomeOK
	done := doneEvent{Text: text}
	if err != nil {
		outcome = outcomeError
		done.Error = err.Error()
	}
	chatRequests.WithLabelValues(outcome).Inc()
	chatDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	send("done", done)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeEvent(w io.Writer, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, b)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
