// Package mockserver is a development stand-in for the storefront chatbot backend.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"

	"github.com/malonaz/shopchat/internal/chatapi"
	"github.com/malonaz/shopchat/internal/debug"
	"github.com/malonaz/shopchat/model"
)

// APIPrefix is where the chatbot routes are mounted.
const APIPrefix = "/api/v1"

// localDateTime is the zone-less format the real backend uses for timestamps.
const localDateTime = "2006-01-02T15:04:05.999999"

type transcriptEntry struct {
	sender model.Sender
	text   string
}

type mockSession struct {
	userID     *int64
	createdAt  time.Time
	transcript []transcriptEntry
}

// Option configures a server.
type Option func(*Server)

// WithDelay makes every chat reply wait, like the real backend does.
func WithDelay(delay time.Duration) Option {
	return func(s *Server) {
		s.delay = delay
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server answers chatbot requests from a catalog of canned replies.
type Server struct {
	catalog *Catalog
	delay   time.Duration
	now     func() time.Time
	log     *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*mockSession
	active   *strset.Set
}

// New returns a server answering from catalog.
func New(catalog *Catalog, opts ...Option) *Server {
	s := &Server{
		catalog:  catalog,
		now:      time.Now,
		log:      debug.GetLogger(),
		sessions: map[string]*mockSession{},
		active:   strset.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Route(APIPrefix+"/chatbot", s.RegisterRoutes)
	r.Get("/", s.handleInspectSessions)
	r.Get("/sessions/{sessionID}", s.handleInspectSession)
	return r
}

// RegisterRoutes registers the chatbot routes.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/session/new", s.handleCreateSession)
	r.Post("/chat", s.handleChat)
	r.Get("/history/{sessionID}", s.handleHistory)
	r.Get("/health", s.handleHealth)
}

// ActiveSessions returns the number of sessions created so far.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Size()
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var userID *int64
	if raw := r.URL.Query().Get("userId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, "Error creating session: invalid userId "+raw)
			return
		}
		userID = &id
	}
	respondOK(w, "Session created successfully", s.createSession(userID))
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	request := &chatapi.ChatRequest{}
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		respondError(w, "Error processing chat: invalid request body")
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		respondError(w, "Error processing chat: Message không được để trống")
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}

	sessionID := s.resolveSession(request.SessionID, request.UserID)
	rule := s.catalog.Match(request.Message)
	products := s.catalog.ProductsFor(rule)
	reply, err := rule.Render(&ReplyData{
		Message:   request.Message,
		SessionID: sessionID,
		UserID:    request.UserID,
		Products:  products,
	})
	if err != nil {
		s.log.WithError(err).Error("rendering reply")
		respondError(w, "Error processing chat: "+err.Error())
		return
	}

	s.record(sessionID, transcriptEntry{sender: model.SenderUser, text: request.Message}, transcriptEntry{sender: model.SenderBot, text: reply})
	respondOK(w, "Chat processed successfully", map[string]any{
		"session_id":   sessionID,
		"message":      reply,
		"timestamp":    s.now().Format(localDateTime),
		"products":     products,
		"message_type": rule.MessageType,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	var sb strings.Builder
	if ok {
		for _, entry := range session.transcript {
			fmt.Fprintf(&sb, "%s: %s\n", entry.sender, entry.text)
		}
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, "Error retrieving history: Session not found")
		return
	}
	respondOK(w, "Chat history retrieved successfully", map[string]any{
		"session_id":   sessionID,
		"message":      sb.String(),
		"timestamp":    s.now().Format(localDateTime),
		"message_type": model.MessageTypeHistory,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, "Chatbot service is running", "OK")
}

func (s *Server) createSession(userID *int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSessionLocked(userID)
}

func (s *Server) createSessionLocked(userID *int64) string {
	id := uuid.New().String()
	s.sessions[id] = &mockSession{userID: userID, createdAt: s.now()}
	s.active.Add(id)
	s.log.WithField("session_id", id).Info("mock session created")
	return id
}

// resolveSession returns sessionID when it is active, a new session otherwise.
func (s *Server) resolveSession(sessionID string, userID *int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID != "" && s.active.Has(sessionID) {
		return sessionID
	}
	return s.createSessionLocked(userID)
}

func (s *Server) record(sessionID string, entries ...transcriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[sessionID]
	session.transcript = append(session.transcript, entries...)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("mock request")
	})
}

func respondOK(w http.ResponseWriter, message string, data any) {
	respond(w, http.StatusOK, "OK", message, data)
}

func respondError(w http.ResponseWriter, message string) {
	respond(w, http.StatusBadRequest, "BAD_REQUEST", message, nil)
}

func respond(w http.ResponseWriter, code int, status, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"message": message,
		"data":    data,
	})
}
