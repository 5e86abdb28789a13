package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/ndefsync/internal/document"
	"github.com/danmuck/ndefsync/internal/edit"
	"github.com/danmuck/ndefsync/internal/logs"
	"github.com/danmuck/ndefsync/internal/model"
	"github.com/danmuck/ndefsync/internal/workbench"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "0.1.0"

// DocumentView is the body of GET /documents/:id.
type DocumentView struct {
	Document document.Info    `json:"document" yaml:"document"`
	Tree     model.ExportNode `json:"tree" yaml:"tree"`
}

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": s.cfg.Name,
			"version": version,
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.bench.Snapshot())
	})

	r.GET("/documents", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"documents": s.bench.Documents()})
	})

	r.GET("/documents/:id", s.handleDocument)

	r.DELETE("/documents/:id", func(c *gin.Context) {
		if err := s.bench.Close(c.Param("id")); err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/documents/:id/undo", s.docOp(func(ctx context.Context, c *gin.Context) error {
		return s.bench.Undo(ctx, c.Param("id"))
	}))

	r.POST("/documents/:id/redo", s.docOp(func(ctx context.Context, c *gin.Context) error {
		return s.bench.Redo(ctx, c.Param("id"))
	}))

	r.POST("/documents/:id/records/:index/remove", s.docOp(func(ctx context.Context, c *gin.Context) error {
		index, err := intParam(c.Param("index"))
		if err != nil {
			return err
		}
		return s.bench.RemoveRecord(ctx, c.Param("id"), index)
	}))

	r.POST("/documents/:id/records/:index/move", s.docOp(func(ctx context.Context, c *gin.Context) error {
		index, err := intParam(c.Param("index"))
		if err != nil {
			return err
		}
		delta, err := intParam(c.Query("delta"))
		if err != nil {
			return err
		}
		return s.bench.MoveRecord(ctx, c.Param("id"), index, delta)
	}))

	r.PUT("/subscribers/read/:id", s.register(func(c *gin.Context) error {
		return s.bench.SetAutoRead(c.Param("id"))
	}))
	r.PUT("/subscribers/write/:id", s.register(func(c *gin.Context) error {
		return s.bench.SetAutoWrite(c.Param("id"))
	}))
	r.DELETE("/subscribers/read", s.register(func(*gin.Context) error {
		return s.bench.SetAutoRead("")
	}))
	r.DELETE("/subscribers/write", s.register(func(*gin.Context) error {
		return s.bench.SetAutoWrite("")
	}))

	r.GET("/events", s.handleEvents)
}

var errBadParam = errors.New("server: invalid integer parameter")

func intParam(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadParam
	}
	return n, nil
}

func (s *Server) handleDocument(c *gin.Context) {
	doc, err := s.bench.Document(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	view := DocumentView{Document: doc.Info(), Tree: doc.Export()}
	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, view)
	case "yaml":
		out, err := yaml.Marshal(view)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or yaml"})
	}
}

// docOp wraps a document operation with the request timeout and replies
// with the document's new summary.
func (s *Server) docOp(op func(ctx context.Context, c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
		defer cancel()
		if err := op(ctx, c); err != nil {
			s.fail(c, err)
			return
		}
		doc, err := s.bench.Document(c.Param("id"))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "document": doc.Info()})
	}
}

func (s *Server) register(op func(c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := op(c); err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s.bench.Snapshot())
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workbench.ErrUnknownDocument):
		status = http.StatusNotFound
	case errors.Is(err, errBadParam):
		status = http.StatusBadRequest
	case errors.Is(err, edit.ErrIndexOutOfRange),
		errors.Is(err, edit.ErrNothingToUndo),
		errors.Is(err, edit.ErrNothingToRedo):
		status = http.StatusConflict
	case errors.Is(err, workbench.ErrNotAttached),
		errors.Is(err, workbench.ErrDispatcherStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		logs.Errf("server.fail path=%s err=%v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

const eventWriteWait = 5 * time.Second

// handleEvents streams workbench events as JSON text frames. The first
// frame is a snapshot of the current state.
func (s *Server) handleEvents(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logs.Warnf("server.handleEvents upgrade err=%v", err)
		return
	}
	defer conn.Close()

	events, cancel := s.bench.Subscribe()
	defer cancel()

	// reads only to notice the peer going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	logs.Infof("server.handleEvents open remote=%s", c.ClientIP())
	if err := s.writeEvent(conn, s.bench.SnapshotEvent()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			logs.Infof("server.handleEvents closed remote=%s", c.ClientIP())
			return
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.writeEvent(conn, ev); err != nil {
				logs.Debugf("server.handleEvents write err=%v", err)
				return
			}
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, ev workbench.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
	return conn.WriteJSON(ev)
}
