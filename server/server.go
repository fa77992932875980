package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JeffreyLin1/peetleAI/config"
	"github.com/JeffreyLin1/peetleAI/types"
)

// GenerateFunc runs one full video generation and returns its final state.
type GenerateFunc func(ctx context.Context, topic string) (*types.RunState, error)

// Server exposes video generation over HTTP.
type Server struct {
	cfg      *config.Config
	generate GenerateFunc
	apiKey   string
	engine   *gin.Engine
}

type generateRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type generateResponse struct {
	RunID       string  `json:"run_id"`
	Topic       string  `json:"topic"`
	VideoFile   string  `json:"video_file"`
	DurationSec float64 `json:"duration_sec"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// New builds the router. When PEETLE_API_KEY is set, /api routes require it
// as a bearer token; health stays open either way.
func New(cfg *config.Config, generate GenerateFunc) *Server {
	s := &Server{
		cfg:      cfg,
		generate: generate,
		apiKey:   os.Getenv("PEETLE_API_KEY"),
	}

	r := gin.Default()
	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api", s.requireKey)
	api.POST("/generate", s.handleGenerate)

	s.engine = r
	return s
}

// Handler exposes the router for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	log.Printf("[server] listening on %s", s.cfg.Server.Addr)
	return s.engine.Run(s.cfg.Server.Addr)
}

func (s *Server) requireKey(c *gin.Context) {
	if s.apiKey == "" {
		c.Next()
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token != s.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid or missing API key"})
		return
	}
	c.Next()
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// handleGenerate runs the whole pipeline synchronously; renders take a while
// and the client is expected to wait.
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "topic is required"})
		return
	}

	state, err := s.generate(c.Request.Context(), req.Topic)
	if err != nil {
		log.Printf("[server] ❌ generation failed: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		RunID:       state.RunID,
		Topic:       state.Topic,
		VideoFile:   state.VideoFile,
		DurationSec: state.DurationSec,
	})
}
