package transport

import (
	"context"
	"net/http"
	"time"

	"go-chart-analyzer/internal/auth"
	"go-chart-analyzer/internal/config"
	apperrors "go-chart-analyzer/internal/errors"
	"go-chart-analyzer/internal/logger"
	"go-chart-analyzer/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnalyzeRequest carries one uploaded chart screenshot as a data URI.
type AnalyzeRequest struct {
	Image string `json:"image" binding:"required"`
}

type LoginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(svc service.AnalysisService, authenticator *auth.Authenticator, cfg *config.Config) http.Handler {
	r := gin.Default()
	r.Use(requestSizeLimiter(cfg.MaxRequestBodySize))

	r.GET("/health", healthCheck)

	api := r.Group("/api/v1")
	api.POST("/analyze", analyzeChart(svc, cfg))
	api.POST("/login", login(authenticator))
	api.GET("/history", listHistory(svc))
	api.DELETE("/history", clearHistory(svc))

	return r
}

// analyzeChart handles one analysis request. Every pipeline terminal
// state is an HTTP 200 with a complete AnalysisResult; only a malformed
// request envelope is a client error.
func analyzeChart(svc service.AnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing chart analysis request")

		var req AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithField("ip", c.ClientIP()).Error("Invalid request format")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   http.StatusText(http.StatusBadRequest),
				Message: "request body must be JSON with an image field",
			})
			return
		}

		result := svc.Analyze(ctx, req.Image)

		logger.WithFields(logrus.Fields{
			"success":            result.Success,
			"is_valid_chart":     result.IsValidChart,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Chart analysis request completed")

		c.JSON(http.StatusOK, result)
	}
}

func login(authenticator *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, LoginResponse{Success: false, Error: "userId and password are required"})
			return
		}

		if err := authenticator.Authenticate(req.UserID, req.Password); err != nil {
			logger.WithFields(logrus.Fields{
				"user_id": req.UserID,
				"ip":      c.ClientIP(),
			}).Warn("Failed login attempt")
			c.JSON(apperrors.GetStatusCode(err), LoginResponse{Success: false, Error: "invalid user ID or password"})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{Success: true})
	}
}

func listHistory(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"entries": svc.History()})
	}
}

func clearHistory(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.ClearHistory()
		c.Status(http.StatusNoContent)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
