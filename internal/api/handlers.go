// internal/api/handlers.go
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/k13114/ifsmurd/internal/broadcast"
	"github.com/k13114/ifsmurd/internal/observability"
	"github.com/k13114/ifsmurd/internal/session"
	"github.com/k13114/ifsmurd/internal/status"
)

type openPortRequest struct {
	Name     string `json:"name"`
	BaudRate int    `json:"baud_rate"`
}

type gateRequest struct {
	Run *bool `json:"run"`
}

type statusResponse struct {
	Session session.State `json:"session"`
	Link    *linkStatus   `json:"link,omitempty"`
}

type linkStatus struct {
	status.Snapshot
	HealthName string `json:"health_name"`
}

func (s *Server) lifecycle(op func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := op(); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, s.opts.Controller.State())
	}
}

func (s *Server) listPorts(c *gin.Context) {
	ports, err := s.opts.Ports()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ports)
}

func (s *Server) getStatus(c *gin.Context) {
	resp := statusResponse{Session: s.opts.Controller.State()}
	if s.opts.Link != nil {
		snap := s.opts.Link()
		resp.Link = &linkStatus{Snapshot: snap, HealthName: status.HealthName(snap.Health)}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) openPort(c *gin.Context) {
	var req openPortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BaudRate == 0 {
		req.BaudRate = s.opts.DefaultBaud
	}

	if err := s.opts.Controller.OpenPort(req.Name, req.BaudRate); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.opts.Controller.State())
}

func (s *Server) setGate(c *gin.Context) {
	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Run == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"run\": bool}"})
		return
	}

	if err := s.opts.Controller.SetRunning(*req.Run); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.opts.Controller.State())
}

func (s *Server) command(c *gin.Context) {
	if err := s.opts.Controller.Command(c.Request.Context(), c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// streamRecords sends records as server-sent events until the client goes
// away, the channel closes or limit records were sent.
func (s *Server) streamRecords(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	sub, err := s.opts.Controller.Subscribe()
	if err != nil {
		fail(c, err)
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	sent := 0
	for limit == 0 || sent < limit {
		rec, err := sub.Recv(ctx)

		var lagged *broadcast.LaggedError
		if errors.As(err, &lagged) {
			observability.RecordLagged("http", lagged.Skipped)
			c.SSEvent("lagged", gin.H{"skipped": lagged.Skipped})
			c.Writer.Flush()
			continue
		}
		if err != nil {
			return
		}

		c.SSEvent("record", rec)
		c.Writer.Flush()
		sent++
	}
}
