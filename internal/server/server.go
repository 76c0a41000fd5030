package server

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/letieu/reddit-profiler/internal/analyzer"
	"github.com/letieu/reddit-profiler/internal/profiler"
	"github.com/letieu/reddit-profiler/internal/prompt"
	"github.com/letieu/reddit-profiler/internal/reddit"
	"github.com/letieu/reddit-profiler/internal/status"
	"github.com/letieu/reddit-profiler/internal/store"
)

type Server struct {
	profiler *profiler.Profiler
	tracker  *status.Tracker
}

type fetchRequest struct {
	Limit int `json:"limit"`
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

func New(p *profiler.Profiler) *Server {
	return &Server{profiler: p, tracker: status.NewTracker()}
}

// Router builds the gin engine serving the JSON API.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	api.GET("/models", s.listModels)
	api.GET("/prompts", s.listPrompts)
	api.GET("/users", s.listUsers)
	api.GET("/users/:username", s.getUser)
	api.DELETE("/users/:username", s.deleteUser)
	api.POST("/users/:username/fetch", s.fetch)
	api.POST("/users/:username/analyze", s.analyze)
	api.GET("/users/:username/stats", s.stats)
	api.GET("/users/:username/export", s.export)
	api.GET("/users/:username/status", s.actionStatus)

	return router
}

func (s *Server) Run(addr string) error {
	log.Printf("Listening on %s", addr)
	return s.Router().Run(addr)
}

func (s *Server) listModels(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"default": prompt.DefaultModel,
		"models":  prompt.Models(),
	})
}

func (s *Server) listPrompts(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"default": prompt.DefaultPresetKey,
		"prompts": prompt.Presets(),
	})
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.profiler.Sessions(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"count": len(users),
		"users": users,
	})
}

func (s *Server) getUser(c *gin.Context) {
	sess, err := s.profiler.Session(c.Request.Context(), c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, sess)
}

func (s *Server) deleteUser(c *gin.Context) {
	username, err := profiler.Username(c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}
	if err := s.profiler.Remove(c.Request.Context(), username); err != nil {
		abort(c, err)
		return
	}
	s.tracker.Reset(username)
	c.Status(http.StatusNoContent)
}

func (s *Server) fetch(c *gin.Context) {
	username, err := profiler.Username(c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}

	var req fetchRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		return
	}

	if err := s.tracker.Begin(username, status.ActionFetch); err != nil {
		abort(c, err)
		return
	}
	sess, err := s.profiler.Fetch(c.Request.Context(), username, req.Limit)
	s.tracker.Finish(username, status.ActionFetch, err)
	if err != nil {
		abort(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"username":      sess.Username,
		"fetched_at":    sess.FetchedAt,
		"comment_count": len(sess.Comments),
	})
}

func (s *Server) analyze(c *gin.Context) {
	username, err := profiler.Username(c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}

	var req analyzeRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		return
	}

	if err := s.tracker.Begin(username, status.ActionAnalyze); err != nil {
		abort(c, err)
		return
	}
	res, err := s.profiler.Analyze(c.Request.Context(), username, req.Prompt, req.Model)
	s.tracker.Finish(username, status.ActionAnalyze, err)
	if err != nil {
		abort(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, res)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.profiler.Stats(c.Request.Context(), c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, st)
}

func (s *Server) export(c *gin.Context) {
	filename, content, err := s.profiler.Export(c.Request.Context(), c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

func (s *Server) actionStatus(c *gin.Context) {
	username, err := profiler.Username(c.Param("username"))
	if err != nil {
		abort(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"username": username,
		"fetch":    s.tracker.Get(username, status.ActionFetch),
		"analyze":  s.tracker.Get(username, status.ActionAnalyze),
	})
}

// bindOptionalJSON accepts an empty body as the zero request. On a
// malformed body it writes the 400 response itself.
func bindOptionalJSON(c *gin.Context, req any) error {
	err := c.ShouldBindJSON(req)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
	return err
}

func abort(c *gin.Context, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// statusCode maps the error taxonomy onto HTTP. Configuration errors and
// anything unrecognized are 500.
func statusCode(err error) int {
	var (
		validationErr *reddit.ValidationError
		authErr       *reddit.AuthError
		fetchErr      *reddit.FetchError
		invocationErr *analyzer.InvocationError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, status.ErrInProgress):
		return http.StatusConflict
	case errors.As(err, &authErr), errors.As(err, &fetchErr), errors.As(err, &invocationErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
