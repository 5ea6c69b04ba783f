package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hervehildenbrand/saferoute/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeRequest struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

type batchRequest struct {
	Routes []routeRequest `json:"routes" binding:"required,min=1,max=100,dive"`
}

type alternativesResponse struct {
	Source       string               `json:"source"`
	Destination  string               `json:"destination"`
	Alternatives []models.Alternative `json:"alternatives"`
}

type matrixResponse struct {
	Locations []string                                `json:"locations"`
	Matrix    map[string]map[string]models.MatrixCell `json:"matrix"`
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)

	gatherer := s.deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.router.Group("/v1")
	{
		v1.GET("/locations", s.listLocations)
		v1.GET("/locations/:name", s.getLocation)

		routes := v1.Group("/routes")
		{
			routes.POST("/analyze", s.analyzeRoute)
			routes.POST("/batch", s.batchAnalyze)
			routes.GET("/alternatives", s.alternatives)
		}

		v1.GET("/matrix", s.matrix)
		v1.GET("/analyses", s.listAnalyses)
		if s.deps.Hub != nil {
			v1.GET("/analyses/ws", gin.WrapH(s.deps.Hub))
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"locations": s.deps.Registry.Len(),
	})
}

func (s *Server) listLocations(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Registry.Summary())
}

func (s *Server) getLocation(c *gin.Context) {
	name := c.Param("name")
	rec, ok := s.deps.Registry.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found", "location": name})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) analyzeRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result := s.deps.Session.AnalyzeRoute(c.Request.Context(), req.Source, req.Destination)
	if !result.OK() {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) batchAnalyze(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	routes := make([]models.Route, len(req.Routes))
	for i, r := range req.Routes {
		routes[i] = models.Route{Source: r.Source, Destination: r.Destination}
	}
	results := s.deps.Session.BatchAnalyze(c.Request.Context(), routes)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) alternatives(c *gin.Context) {
	source := c.Query("source")
	destination := c.Query("destination")
	if source == "" || destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source and destination are required"})
		return
	}

	c.JSON(http.StatusOK, alternativesResponse{
		Source:       source,
		Destination:  destination,
		Alternatives: s.deps.Session.Analyzer().SafeAlternatives(source, destination),
	})
}

func (s *Server) matrix(c *gin.Context) {
	m := s.deps.Session.Analyzer().RiskMatrix()
	c.JSON(http.StatusOK, matrixResponse{Locations: m.Locations, Matrix: m.Map()})
}

func (s *Server) listAnalyses(c *gin.Context) {
	entries, err := s.deps.Session.Entries(c.Request.Context())
	if err != nil {
		s.logger.Error("reading session log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": s.deps.Session.ID(),
		"analyses":   entries,
	})
}
