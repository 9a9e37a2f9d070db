package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"
	ws "github.com/prepwise/backend/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// Server holds all server dependencies
type Server struct {
	config              *Config
	repo                *repository.GORMRepository
	rawDB               *gorm.DB
	gateway             *Gateway
	interviews          *InterviewService
	discussions         *DiscussionService
	resumeParser        *ResumeParser
	authService         *AuthService
	authEndpoints       *AuthEndpoints
	interviewEndpoints  *InterviewEndpoints
	discussionEndpoints *DiscussionEndpoints
	websocketHandler    *WebSocketHandler
	wsHub               *ws.Hub
	upgrader            websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(repo *repository.GORMRepository, rawDB *gorm.DB) {
	s.repo = repo
	s.rawDB = rawDB
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	s.gateway = NewGateway(s.config.AI.GeminiAPIKey, rand.NewSource(time.Now().UnixNano()))
	s.resumeParser = NewResumeParser()

	s.interviews = NewInterviewService(s.gateway, NewStubVoiceAnalyzer(), NewStubVideoAnalyzer(), s.repo)
	s.discussions = NewDiscussionService(s.gateway, s.repo, rand.NewSource(time.Now().UnixNano()))
	slog.Info("Interview and discussion services initialized")

	if s.repo != nil {
		s.authService = NewAuthService(s.repo, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		slog.Info("Authentication service initialized")
	}

	s.interviewEndpoints = NewInterviewEndpoints(s.interviews, s.resumeParser)
	s.discussionEndpoints = NewDiscussionEndpoints(s.discussions)
	s.websocketHandler = NewWebSocketHandler(s.discussions)

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	// Stream persona turns to any websocket clients on the session.
	s.discussions.SetNotifier(func(sessionID string, turn models.Turn) {
		payload, err := json.Marshal(map[string]interface{}{
			"type":  "turn",
			"gd_id": sessionID,
			"turn":  turn,
		})
		if err != nil {
			slog.Error("Failed to marshal turn broadcast", "gd_id", sessionID, "error", err)
			return
		}
		s.wsHub.BroadcastToSession(sessionID, payload)
	})

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.apiV1Handler)

		if s.authEndpoints != nil {
			// Public auth routes, plus /me behind the identity middleware
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.authEndpoints.LoginHandler)
				r.Post("/signup", s.authEndpoints.SignupHandler)
				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					r.Get("/me", s.authEndpoints.MeHandler)
				})
			})
		}

		r.Group(func(r chi.Router) {
			if s.authService != nil {
				r.Use(s.authService.Middleware)
			}
			s.interviewEndpoints.RegisterRoutes(r)
			s.discussionEndpoints.RegisterRoutes(r)
			r.Get("/ws", s.websocketHandlerFunc)
		})
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.rawDB != nil {
		if sqlDB, err := s.rawDB.DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))

	slog.Info("Health check", "status", status, "database", dbStatus)
}

func (s *Server) apiV1Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message":"API v1","version":"1.0.0"}`))
}

// websocketHandlerFunc upgrades the connection and attaches it to a live
// discussion. The gd_id query parameter names the discussion to join.
func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	sessionID := r.URL.Query().Get("gd_id")
	if sessionID == "" {
		http.Error(w, "gd_id query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := s.discussions.Status(r.Context(), userID, sessionID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", userID, "gd_id", sessionID)

	client := s.wsHub.RegisterClient(conn, userID, sessionID)
	client.MessageHandler = s.websocketHandler.HandleWebSocketMessage

	go client.WritePump()
	client.ReadPump()
}
