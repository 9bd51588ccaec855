// Package server exposes the chat, reasoning-pipeline and search flows over
// HTTP, streaming progress as Server-Sent Events.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/temirov/self-discover/internal/config"
	"github.com/temirov/self-discover/internal/moderation"
	"github.com/temirov/self-discover/internal/pipeline"
	"github.com/temirov/self-discover/internal/search"
)

const (
	eventDelta    = "delta"
	eventStep     = "step"
	eventDone     = "done"
	eventError    = "error"
	eventRejected = "rejected"

	chatLabel           = "answer"
	shutdownGracePeriod = 5 * time.Second

	missingPromptMessage  = "prompt is required"
	missingTaskMessage    = "task is required"
	missingQueryMessage   = "query is required"
	searchDisabledMessage = "search is not configured"
)

//go:embed assets/index.html
var indexPage []byte

// ChatDefaults prefills the chat form.
type ChatDefaults struct {
	SystemPrompt string
	UserPrompt   string
}

// Server holds the collaborators shared by all requests. Handlers copy the
// value-typed runner and service per request and never mutate them.
type Server struct {
	Client   pipeline.StreamingClient
	Discover pipeline.Runner
	Search   *search.Service
	Models   []config.Model
	Chat     ChatDefaults
	Logger   *zap.Logger
}

// Handler builds the gin engine.
func (s Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/", s.handleIndex)
	engine.GET("/healthz", s.handleHealth)
	api := engine.Group("/api")
	api.GET("/models", s.handleModels)
	api.POST("/chat", s.handleChat)
	api.POST("/discover", s.handleDiscover)
	api.POST("/search", s.handleSearch)
	return engine
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s Server) ListenAndServe(ctx context.Context, address string) error {
	httpServer := &http.Server{Addr: address, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- httpServer.ListenAndServe() }()
	s.logger().Info("serving", zap.String("address", address))

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

type discoverRequest struct {
	Task  string `json:"task"`
	Model string `json:"model"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type modelView struct {
	Name    string `json:"name"`
	ModelID string `json:"model_id"`
	Default bool   `json:"default"`
}

func (s Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexPage)
}

func (s Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s Server) handleModels(c *gin.Context) {
	views := make([]modelView, 0, len(s.Models))
	defaultName := ""
	for _, model := range s.Models {
		views = append(views, modelView{Name: model.Name, ModelID: model.ModelID, Default: model.Default})
		if model.Default {
			defaultName = model.Name
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"models":  views,
		"default": defaultName,
		"chat":    gin.H{"system": s.Chat.SystemPrompt, "prompt": s.Chat.UserPrompt},
	})
}

func (s Server) handleChat(c *gin.Context) {
	var request chatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(request.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": missingPromptMessage})
		return
	}
	model, err := s.resolveModel(request.Model)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sink := newEventSink(c, eventDelta)
	started := time.Now()
	text, chatErr := pipeline.Chat(c.Request.Context(), s.Client, pipeline.LLMRequest{
		SystemPrompt: request.System,
		UserPrompt:   request.Prompt,
		Model:        model.ModelID,
		Temperature:  model.Temperature,
		MaxTokens:    model.MaxTokens,
	}, chatLabel, sink)
	if chatErr != nil {
		s.logger().Warn("chat failed", zap.Error(chatErr))
		sink.emit(eventError, gin.H{"error": chatErr.Error()})
		return
	}
	sink.emit(eventDone, gin.H{"text": text, "elapsed_seconds": elapsedSeconds(started)})
}

func (s Server) handleDiscover(c *gin.Context) {
	var request discoverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(request.Task) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": missingTaskMessage})
		return
	}
	model, err := s.resolveModel(request.Model)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sink := newEventSink(c, eventDelta)
	runner := s.Discover
	runner.Client = s.Client
	runner.Sink = sink
	runner.Options.Model = model.ModelID
	runner.Options.Temperature = model.Temperature
	runner.Options.MaxTokens = model.MaxTokens

	started := time.Now()
	run, runErr := runner.Run(c.Request.Context(), request.Task)
	if runErr != nil {
		s.logger().Warn("discover failed", zap.String("run_id", run.ID.String()), zap.Error(runErr))
		payload := gin.H{"error": runErr.Error(), "state": run.State.String()}
		var stageErr *pipeline.StageError
		if errors.As(runErr, &stageErr) {
			payload["stage"] = stageErr.Stage.String()
		}
		sink.emit(eventError, payload)
		return
	}
	sink.emit(eventDone, gin.H{
		"run_id":          run.ID.String(),
		"answer":          run.Answer(),
		"elapsed_seconds": elapsedSeconds(started),
	})
}

func (s Server) handleSearch(c *gin.Context) {
	if s.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": searchDisabledMessage})
		return
	}
	var request searchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": missingQueryMessage})
		return
	}

	sink := newEventSink(c, eventStep)
	service := *s.Search
	service.Agent.Sink = sink

	answer, err := service.Ask(c.Request.Context(), request.Query)
	if err != nil {
		var rejection *moderation.Rejection
		if errors.As(err, &rejection) {
			sink.emit(eventRejected, gin.H{"reason": rejection.Reason})
			return
		}
		s.logger().Warn("search failed", zap.Error(err))
		sink.emit(eventError, gin.H{"error": err.Error()})
		return
	}
	sink.emit(eventDone, gin.H{
		"input":           answer.Input,
		"output":          answer.Output,
		"exhausted":       answer.Exhausted,
		"elapsed_seconds": answer.Elapsed.Seconds(),
	})
}

func (s Server) resolveModel(name string) (config.Model, error) {
	return config.Root{Models: s.Models}.ResolveModel(name)
}

func (s Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		s.logger().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(started)),
		)
	}
}

func (s Server) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return zap.NewNop()
}

func elapsedSeconds(started time.Time) float64 {
	return time.Since(started).Seconds()
}

// eventSink publishes every update as an SSE event and flushes immediately.
type eventSink struct {
	mu        sync.Mutex
	c         *gin.Context
	eventName string
}

func newEventSink(c *gin.Context, eventName string) *eventSink {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &eventSink{c: c, eventName: eventName}
}

func (e *eventSink) Publish(label string, text string) {
	e.emit(e.eventName, gin.H{"label": label, "text": text})
}

func (e *eventSink) emit(name string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.c.SSEvent(name, payload)
	e.c.Writer.Flush()
}
