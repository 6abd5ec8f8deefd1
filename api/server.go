package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nrtkbb/adbfm/logging"
	"github.com/nrtkbb/adbfm/metrics"
	"go.uber.org/zap"
)

// NewServer builds the echo instance with middleware and every route. A
// non-empty staticDir is served at "/".
func NewServer(h *Handler, logger *zap.Logger, staticDir string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Metrics wrap logging so they see the status the error handler wrote.
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(metrics.Middleware())
	e.Use(logging.Middleware(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Device
	e.GET("/api/get_device", h.GetDevice)
	e.GET("/api/device_info", h.DeviceInfo)
	e.POST("/api/device_info", h.DeviceInfo)
	e.GET("/screenshot/:deviceId", h.Screenshot)

	// Listings
	e.GET("/api/get_images", h.GetImages)
	e.GET("/api/get_videos", h.GetVideos)
	e.GET("/api/get_audios", h.GetAudios)
	e.GET("/api/get_documents", h.GetDocuments)
	e.GET("/api/get_files", h.GetFiles)

	// Transfers
	e.GET("/api/file", h.GetFile)
	e.GET("/api/thumbnail", h.GetThumbnail)
	e.POST("/api/upload", h.Upload)
	e.GET("/api/delete_file", h.DeleteFile)
	e.DELETE("/api/delete_file", h.DeleteFile)

	// Local state
	e.GET("/api/storagedir", h.StorageDir)
	e.GET("/api/cache", h.ListCache)
	e.GET("/api/transfers", h.ListTransfers)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	if staticDir != "" {
		e.Static("/", staticDir)
	}
	return e
}
