// Package api exposes the HTTP surface: booking and camera endpoints, the
// stream failure callback, PTZ execution and the static HLS directory.
package api

import (
	"fmt"

	"sedecam/config"
	"sedecam/database"
	"sedecam/ptz"
	"sedecam/service"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config   config.Config
	db       database.Database
	services *service.ServiceManager
	cameras  *service.CameraManager
	ptz      *ptz.Gateway
}

func NewServer(cfg config.Config, db database.Database, services *service.ServiceManager, cameras *service.CameraManager, gateway *ptz.Gateway) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		services: services,
		cameras:  cameras,
		ptz:      gateway,
	}
}

func (s *Server) Start() {
	r := gin.Default()
	s.setupCORS(r)
	s.setupRoutes(r)
	portAddr := ":" + s.config.ServerPort
	fmt.Printf("Starting API server on %s\n", portAddr)
	r.Run(portAddr)
}

func (s *Server) setupCORS(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})
}

func (s *Server) setupRoutes(r *gin.Engine) {
	// HLS playlists and segments are written by the stream processes and
	// served straight from disk
	r.Static("/live", s.config.LivePath)

	r.GET("/health", s.getHealth)

	api := r.Group("/api/v1")
	{
		api.POST("/services", s.createService)
		api.PUT("/services/:id", s.updateService)

		api.POST("/cameras", s.createCamera)
		api.GET("/cameras", s.listCameras)
		api.GET("/cameras/:id", s.getCamera)
		api.PUT("/cameras/:id", s.updateCamera)
		api.DELETE("/cameras/:id", s.deleteCamera)
		api.PATCH("/cameras/cameraFail/:id", s.cameraFail)

		api.GET("/streamings/ptz/:serviceId", s.listPTZMovements)
		api.PUT("/streamings/ptz/exec/:movementId", s.execPTZMovement)
	}
}
