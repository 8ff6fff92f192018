// Package http builds the model-aware serving surface: prediction behind
// prototype validation, introspection routes, and caller-registered
// auxiliary endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"pinserve/internal/adapters/primary/http/middleware"
	"pinserve/internal/core/domain"
)

const shutdownTimeout = 10 * time.Second

// EndpointFunc is the computation behind a caller-registered POST endpoint.
// It receives the decoded request as a column frame and returns an ordered
// sequence of scalars.
type EndpointFunc func(ctx context.Context, input *domain.Frame) ([]any, error)

// API serves one loaded model. Routes are fixed once the server starts
// accepting connections; the model handle is immutable and shared by all
// requests without locking.
type API struct {
	model  *domain.Model
	route  predictionRoute
	host   string
	port   int
	engine *gin.Engine

	endpoints []string
	taken     map[string]bool
	serving   atomic.Bool

	docsOnce sync.Once
	docsJSON []byte
}

type Option func(*API)

// WithAddress sets the network binding.
func WithAddress(host string, port int) Option {
	return func(a *API) {
		a.host = host
		a.port = port
	}
}

// WithoutValidation disables prototype enforcement: request bodies are
// decoded as untyped structures and field constraints are not checked.
func WithoutValidation() Option {
	return func(a *API) { a.route = &rawRoute{} }
}

// New builds the serving surface for a model. The returned API has all fixed
// routes attached; auxiliary endpoints may be registered until Run is called.
func New(model *domain.Model, opts ...Option) (*API, error) {
	if model == nil {
		return nil, fmt.Errorf("serving api: model is required")
	}

	a := &API{
		model: model,
		route: &strictRoute{},
		host:  "127.0.0.1",
		port:  8000,
		taken: map[string]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Logging(), middleware.Metrics(), gin.Recovery())

	engine.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/__docs__")
	})
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ping": "pong"})
	})
	engine.GET("/metadata", a.handleMetadata)
	engine.GET("/prototype", a.handlePrototype)
	engine.GET("/__docs__", a.handleDocsPage)
	engine.GET("/openapi.json", a.handleOpenAPI)
	engine.GET("/metrics", middleware.MetricsHandler())
	engine.POST("/predict/", a.handlePredict)

	for _, name := range []string{"", "ping", "metadata", "prototype", "metrics", "predict", "__docs__", "openapi.json"} {
		a.taken[name] = true
	}

	a.engine = engine
	return a, nil
}

// RegisterEndpoint attaches POST /<name>/ running fn over the decoded request
// payload. Duplicate names and registration after Run are configuration
// errors, not runtime faults.
func (a *API) RegisterEndpoint(name string, fn EndpointFunc) error {
	if name == "" {
		return domain.ErrInvalidEndpoint
	}
	if fn == nil {
		return fmt.Errorf("endpoint %q: function is required", name)
	}
	if a.serving.Load() {
		return domain.ErrAlreadyServing
	}
	if a.taken[name] {
		return fmt.Errorf("%w: %q", domain.ErrEndpointExists, name)
	}
	a.taken[name] = true
	a.endpoints = append(a.endpoints, name)

	a.engine.POST("/"+name+"/", func(c *gin.Context) {
		frame, err := a.route.decode(c, a.model.Prototype())
		if err != nil {
			mapServingError(c, err)
			return
		}
		out, err := fn(c.Request.Context(), frame)
		if err != nil {
			mapServingError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{name: out})
	})
	return nil
}

// Handler exposes the underlying router, mainly for tests.
func (a *API) Handler() http.Handler { return a.engine }

// Run starts accepting connections and blocks until ctx is cancelled, then
// shuts down gracefully. Serving is terminal: no routes change afterwards.
func (a *API) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.host, a.port)
	srv := &http.Server{
		Addr:    addr,
		Handler: a.engine,
	}
	a.serving.Store(true)

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":  addr,
			"model": a.model.Name(),
		}).Info("serving model")
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

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *API) handlePredict(c *gin.Context) {
	frame, err := a.route.decode(c, a.model.Prototype())
	if err != nil {
		mapServingError(c, err)
		return
	}
	out, err := a.model.Predict(c.Request.Context(), frame)
	if err != nil {
		mapServingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": out})
}

// handleMetadata projects the metadata record; the model object itself is
// never exposed.
func (a *API) handleMetadata(c *gin.Context) {
	meta := a.model.Metadata()

	var version, url any
	if meta.Version != "" {
		version = meta.Version
	}
	if meta.URL != "" {
		url = meta.URL
	}
	pkgs := meta.RequiredPkgs
	if pkgs == nil {
		pkgs = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            meta.User,
		"version":         version,
		"url":             url,
		"required_pkgs":   pkgs,
		"runtime_version": meta.RuntimeVersion,
	})
}

func (a *API) handlePrototype(c *gin.Context) {
	proto := a.model.Prototype()
	if proto == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, proto.Descriptor())
}
