package server

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"hatewatch-dashboard/internal/refresh"
)

const htmlContentType = "text/html; charset=utf-8"

type stateResponse struct {
	Status refresh.Status `json:"status"`
	refresh.Snapshot
	IntervalSeconds int `json:"interval_seconds"`
}

type triggerResponse struct {
	Generation uint64 `json:"generation"`
	Started    bool   `json:"started"`
}

func (s *Server) page(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.render.Page(&buf, s.dash.Snapshot()); err != nil {
		log.WithError(err).Error("http: render page")
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (s *Server) content(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.render.Content(&buf, s.dash.Snapshot()); err != nil {
		log.WithError(err).Error("http: render content")
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}

func (s *Server) state(c *gin.Context) {
	snap := s.dash.Snapshot()
	c.JSON(http.StatusOK, stateResponse{
		Status:          snap.Status(),
		Snapshot:        snap,
		IntervalSeconds: int(snap.Interval / time.Second),
	})
}

func (s *Server) refresh(c *gin.Context) {
	gen := s.dash.Refresh()
	respondTriggered(c, gen, true)
}

func (s *Server) country(c *gin.Context) {
	country := strings.TrimSpace(c.PostForm("country"))
	gen, started := s.dash.SetCountry(country)
	respondTriggered(c, gen, started)
}

// respondTriggered answers script clients with JSON and plain form posts with a
// redirect back to the page.
func respondTriggered(c *gin.Context, gen uint64, started bool) {
	if wantsJSON(c.Request) {
		c.JSON(http.StatusAccepted, triggerResponse{Generation: gen, Started: started})
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
