package server

import (
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"discovery/internal/chat"
	"discovery/internal/discovery"
	"discovery/internal/models"
	"discovery/pkg/location"
)

const stateKey = "session"

var (
	errUnknownSession   = errors.New("session not found")
	errNegativeDistance = errors.New("walking minutes must not be negative")
)

func (s *Server) health(c *gin.Context) {
	status, err := s.deps.Backend.Health(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"backend":  "unreachable",
			"guidance": models.Guidance(models.ErrServerUnreachable),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": status.Status})
}

func (s *Server) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.deps.Categories})
}

func (s *Server) models(c *gin.Context) {
	list, err := s.deps.Backend.Models(c.Request.Context())
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": list})
}

func (s *Server) actions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": chat.Actions()})
}

func (s *Server) createSession(c *gin.Context) {
	id := s.sessions.add(&userState{
		discovery:    s.deps.NewSession(),
		conversation: s.deps.NewConversation(),
	})
	c.JSON(http.StatusCreated, gin.H{"id": id.String()})
}

func (s *Server) withSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_session", err)
		return
	}
	st, ok := s.sessions.get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "unknown_session", errUnknownSession)
		return
	}
	c.Set(stateKey, st)
	c.Next()
}

func state(c *gin.Context) *userState {
	return c.MustGet(stateKey).(*userState)
}

func (s *Server) deleteSession(c *gin.Context) {
	id := uuid.MustParse(c.Param("id"))
	if st, ok := s.sessions.remove(id); ok {
		st.discovery.Close()
	}
	c.Status(http.StatusNoContent)
}

type locationRequest struct {
	Query string   `json:"query"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
	// DeviceError is the browser geolocation failure, if any: denied,
	// unavailable or timeout.
	DeviceError string `json:"deviceError"`
}

func (r locationRequest) device() location.StaticDevice {
	switch r.DeviceError {
	case "denied":
		return location.StaticDevice{Err: models.ErrPermissionDenied}
	case "timeout":
		return location.StaticDevice{Err: models.ErrTimeout}
	}
	if r.Lat != nil && r.Lon != nil {
		return location.StaticDevice{Coords: &models.Coordinates{Lat: *r.Lat, Lon: *r.Lon}}
	}
	return location.StaticDevice{Err: models.ErrPositionUnavailable}
}

// publicIP returns the caller address when it can be geolocated.
func publicIP(c *gin.Context) string {
	ip := net.ParseIP(c.ClientIP())
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return ""
	}
	return ip.String()
}

func (s *Server) setLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	loc, err := s.deps.Locations.Resolve(c.Request.Context(), location.Request{
		Manual:   req.Query,
		Device:   req.device(),
		ClientIP: publicIP(c),
	})
	if err != nil {
		respondFailure(c, err)
		return
	}
	state(c).discovery.SetLocation(*loc)
	c.JSON(http.StatusOK, gin.H{"location": loc})
}

type discoverRequest struct {
	Category string `json:"category"`
}

type placesResponse struct {
	Location  *models.Location `json:"location,omitempty"`
	Category  string           `json:"category"`
	Threshold float64          `json:"walkingThreshold"`
	Places    []*models.Place  `json:"places"`
	Displayed int              `json:"displayed"`
}

func (s *Server) placesPayload(sess *discovery.Session, places []*models.Place) placesResponse {
	resp := placesResponse{
		Category:  sess.Category(),
		Threshold: sess.WalkingThreshold(),
		Places:    places,
		Displayed: len(discovery.Displayed(places)),
	}
	if loc, ok := sess.Location(); ok {
		resp.Location = &loc
	}
	if resp.Places == nil {
		resp.Places = []*models.Place{}
	}
	return resp
}

func (s *Server) discover(c *gin.Context) {
	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Category == "" {
		req.Category = discovery.DefaultCategory
	}
	sess := state(c).discovery
	places, err := sess.Discover(c.Request.Context(), req.Category)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, s.placesPayload(sess, places))
}

type filterRequest struct {
	Minutes float64 `json:"minutes"`
}

func (s *Server) filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Minutes < 0 {
		respondError(c, http.StatusBadRequest, "invalid_request", errNegativeDistance)
		return
	}
	sess := state(c).discovery
	places, err := sess.Refilter(req.Minutes)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, s.placesPayload(sess, places))
}

func (s *Server) places(c *gin.Context) {
	sess := state(c).discovery
	c.JSON(http.StatusOK, s.placesPayload(sess, sess.Places()))
}

type chatRequest struct {
	Message  string        `json:"message"`
	Settings chat.Settings `json:"settings"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	conv := state(c).conversation
	if !req.Settings.Stream {
		reply, err := conv.Send(c.Request.Context(), req.Settings, req.Message, nil)
		if err != nil {
			respondFailure(c, err)
			return
		}
		c.JSON(http.StatusOK, reply)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	reply, err := conv.Send(c.Request.Context(), req.Settings, req.Message, func(html string) {
		c.SSEvent("chunk", gin.H{"html": html})
		c.Writer.Flush()
	})
	if err != nil {
		s.log.Warn("stream failed", zap.Error(err))
		_, code := classify(err)
		c.SSEvent("error", APIError{Message: err.Error(), Guidance: models.Guidance(err), Code: code})
		return
	}
	c.SSEvent("done", reply)
}

type imageRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) image(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	url, err := state(c).conversation.SendImage(c.Request.Context(), req.Prompt)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

type exploreRequest struct {
	Action   string        `json:"action"`
	Settings chat.Settings `json:"settings"`
}

func (s *Server) explore(c *gin.Context) {
	var req exploreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	st := state(c)
	loc, ok := st.discovery.Location()
	if !ok {
		respondFailure(c, models.ErrNoLocation)
		return
	}
	rec, err := st.conversation.Explore(c.Request.Context(), req.Settings, req.Action, loc)
	if err != nil {
		respondFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
