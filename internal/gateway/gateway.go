// Package gateway provides the API gateway that routes requests to handlers.
package gateway

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
	"github.com/heritago/backend/internal/models"
)

// proxiedResources are the top-level API collections served by the handler role.
var proxiedResources = []string{"heritages", "multimedia", "annotations", "users", "auth"}

// hopHeaders are connection-scoped and never forwarded.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Gateway provides the API gateway functionality.
type Gateway struct {
	cfg        *config.Config
	logger     *zap.Logger
	httpClient *http.Client
}

// NewGateway creates a new API gateway.
func NewGateway(cfg *config.Config, logger *zap.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RegisterRoutes registers the gateway routes on the given router group.
func (g *Gateway) RegisterRoutes(rg *gin.RouterGroup) {
	for _, resource := range proxiedResources {
		rg.Any("/"+resource, g.proxyToHandler)
		rg.Any("/"+resource+"/*path", g.proxyToHandler)
	}
}

// proxyToHandler forwards requests to the handler service.
func (g *Gateway) proxyToHandler(c *gin.Context) {
	targetURL, err := url.Parse(g.cfg.HandlerURL)
	if err != nil {
		g.logger.Error("Invalid handler URL", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "configuration_error",
			Message: "invalid handler URL configuration",
		})
		return
	}

	// The request path already carries the /api/v1 prefix and the resource.
	targetURL.Path = c.Request.URL.Path
	targetURL.RawQuery = c.Request.URL.RawQuery

	g.logger.Debug("Proxying request",
		zap.String("method", c.Request.Method),
		zap.String("target", targetURL.String()),
	)

	var bodyBytes []byte
	if c.Request.Body != nil {
		bodyBytes, err = io.ReadAll(c.Request.Body)
		if err != nil {
			g.logger.Error("Failed to read request body", zap.Error(err))
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: "failed to read request body",
			})
			return
		}
	}

	proxyReq, err := http.NewRequestWithContext(
		c.Request.Context(),
		c.Request.Method,
		targetURL.String(),
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		g.logger.Error("Failed to create proxy request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to create proxy request",
		})
		return
	}

	copyHeaders(proxyReq.Header, c.Request.Header)
	setForwardingHeaders(proxyReq, c)

	if len(bodyBytes) > 0 && proxyReq.Header.Get("Content-Type") == "" {
		proxyReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(proxyReq)
	if err != nil {
		g.logger.Error("Failed to proxy request", zap.Error(err))

		if errors.Is(err, syscall.ECONNREFUSED) {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   "service_unavailable",
				Message: "handler service is not available",
			})
			return
		}

		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "proxy_error",
			Message: "failed to reach handler service",
		})
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		g.logger.Error("Failed to read response body", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to read response",
		})
		return
	}

	copyHeaders(c.Writer.Header(), resp.Header)

	if len(respBody) == 0 {
		c.Status(resp.StatusCode)
		return
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), respBody)
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
}

// setForwardingHeaders tells the handler which URL the client used. Client
// supplied values are always replaced.
func setForwardingHeaders(proxyReq *http.Request, c *gin.Context) {
	proto := "http"
	if c.Request.TLS != nil {
		proto = "https"
	}
	proxyReq.Header.Set("X-Forwarded-Host", c.Request.Host)
	proxyReq.Header.Set("X-Forwarded-Proto", proto)

	proxyReq.Header.Del("X-Forwarded-For")
	if ip := c.ClientIP(); ip != "" {
		proxyReq.Header.Set("X-Forwarded-For", ip)
	}
}

// HealthCheck returns a health check handler.
func (g *Gateway) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"role":    g.cfg.Role,
		"service": "heritago",
	})
}
