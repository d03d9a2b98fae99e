package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"discovery/internal/chat"
	"discovery/internal/discovery"
	"discovery/internal/logger"
	"discovery/internal/models"
	"discovery/pkg/backend"
	"discovery/pkg/location"
)

// SessionIdleTTL is how long an untouched session is kept.
const SessionIdleTTL = 2 * time.Hour

type LocationResolver interface {
	Resolve(ctx context.Context, req location.Request) (*models.Location, error)
}

type HealthChecker interface {
	Health(ctx context.Context) (*backend.HealthStatus, error)
	Models(ctx context.Context) ([]backend.Model, error)
}

// Deps are the collaborators the API is built from. The factories are
// called once per created session.
type Deps struct {
	Locations       LocationResolver
	Backend         HealthChecker
	NewSession      func() *discovery.Session
	NewConversation func() *chat.Conversation
	Categories      []string
	Log             *zap.Logger
}

type Server struct {
	deps     Deps
	sessions *sessionStore
	engine   *gin.Engine
	log      *zap.Logger
}

func New(deps Deps) *Server {
	s := &Server{deps: deps, sessions: newSessionStore(), log: logger.OrNop(deps.Log)}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware(), requestLogger(s.log))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/categories", s.categories)
		api.GET("/models", s.models)
		api.GET("/actions", s.actions)
		api.POST("/sessions", s.createSession)

		sess := api.Group("/sessions/:id", s.withSession)
		{
			sess.DELETE("", s.deleteSession)
			sess.POST("/location", s.setLocation)
			sess.POST("/discover", s.discover)
			sess.POST("/filter", s.filter)
			sess.GET("/places", s.places)
			sess.POST("/chat", s.chat)
			sess.POST("/image", s.image)
			sess.POST("/explore", s.explore)
		}
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down and closes
// every session.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	go s.sweep(ctx)
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	for _, st := range s.sessions.drain() {
		st.discovery.Close()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(SessionIdleTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := s.sessions.expire(SessionIdleTTL)
			for _, st := range expired {
				st.discovery.Close()
			}
			if len(expired) > 0 {
				s.log.Info("expired idle sessions", zap.Int("count", len(expired)))
			}
		}
	}
}
