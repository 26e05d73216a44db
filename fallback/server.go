package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"

	"github.com/jonwraymond/cmdbridge/auth"
	"github.com/jonwraymond/cmdbridge/observe"
)

// Registration errors.
var (
	ErrInvalidRegistration = errors.New("fallback: command name and handler are required")
	ErrDuplicateCommand    = errors.New("fallback: command already registered")
)

// HandlerFunc executes one command on the server side. The returned value
// is encoded as the result of the envelope.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Server is a reference fallback endpoint.
//
// ServeHTTP speaks the invoke protocol directly. Handler adds CORS and, when
// configured, bearer authentication in front of it.
type Server struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	logger        observe.Logger
	authenticator auth.Authenticator
	origins       []string
	maxBody       int64
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l observe.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAuthenticator requires every request to pass a.
func WithAuthenticator(a auth.Authenticator) ServerOption {
	return func(s *Server) {
		s.authenticator = a
	}
}

// WithAllowedOrigins sets the CORS origins allowed to call the server.
// Default: any origin.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.origins = origins
	}
}

// NewServer creates a server with no commands.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		handlers: make(map[string]HandlerFunc),
		logger:   observe.NopLogger(),
		maxBody:  DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a command handler.
func (s *Server) Register(name string, h HandlerFunc) error {
	name = strings.TrimSpace(name)
	if name == "" || h == nil {
		return ErrInvalidRegistration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateCommand, name)
	}
	s.handlers[name] = h
	return nil
}

// Commands returns the registered command names, sorted.
func (s *Server) Commands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handler returns the invoke handler behind CORS and, when configured,
// authentication. Preflight requests are answered before authentication.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s
	if s.authenticator != nil {
		h = auth.Middleware(s.authenticator, s.authFailure)(h)
	}

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	})
	return c.Handler(h)
}

// ServeHTTP handles POST /invoke.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeEnvelope(w, http.StatusMethodNotAllowed, Response{Error: &ErrorBody{
			Message: "method not allowed",
			Code:    "method_not_allowed",
		}})
		return
	}

	if id := r.Header.Get(RequestIDHeader); id != "" {
		w.Header().Set(RequestIDHeader, id)
	}

	var req Request
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBody))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil || strings.TrimSpace(req.Cmd) == "" {
		writeEnvelope(w, http.StatusBadRequest, Response{Error: &ErrorBody{
			Message: "invalid invoke request",
			Code:    "bad_request",
		}})
		return
	}

	s.mu.RLock()
	h, ok := s.handlers[req.Cmd]
	s.mu.RUnlock()

	ctx := r.Context()
	log := s.logger.WithCommand(observe.CommandMeta{Name: req.Cmd})

	if !ok {
		log.Warn(ctx, "unknown command")
		writeEnvelope(w, http.StatusOK, Response{Error: &ErrorBody{
			Message: "command not implemented: " + req.Cmd,
			Code:    CodeNotImplemented,
		}})
		return
	}

	start := time.Now()
	value, err := h(ctx, req.Args)
	if err != nil {
		log.Warn(ctx, "command failed",
			observe.Field{Key: "error", Value: err.Error()},
			observe.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
		)
		eb := &ErrorBody{Message: err.Error()}
		var remote *RemoteError
		if errors.As(err, &remote) {
			eb.Code = remote.Code
		}
		writeEnvelope(w, http.StatusOK, Response{Error: eb})
		return
	}

	result, err := json.Marshal(value)
	if err != nil {
		log.Error(ctx, "encode result", observe.Field{Key: "error", Value: err.Error()})
		writeEnvelope(w, http.StatusInternalServerError, Response{Error: &ErrorBody{
			Message: "failed to encode result",
			Code:    "internal",
		}})
		return
	}

	log.Debug(ctx, "command served",
		observe.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
	)
	writeEnvelope(w, http.StatusOK, Response{Result: result})
}

func (s *Server) authFailure(w http.ResponseWriter, r *http.Request, err error) {
	msg := "unauthorized"
	if err != nil {
		msg += ": " + err.Error()
	}
	s.logger.Warn(r.Context(), "authentication failed", observe.Field{Key: "error", Value: msg})
	writeEnvelope(w, http.StatusUnauthorized, Response{Error: &ErrorBody{
		Message: msg,
		Code:    "unauthorized",
	}})
}

func writeEnvelope(w http.ResponseWriter, status int, resp Response) {
	// A nil result must still produce {"result":null}.
	if resp.Error == nil && resp.Result == nil {
		resp.Result = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
