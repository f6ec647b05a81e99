// Package handler provides the HTTP handlers for the heritage catalog API.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/auth"
	"github.com/heritago/backend/internal/cache"
	"github.com/heritago/backend/internal/database"
	"github.com/heritago/backend/internal/models"
	"github.com/heritago/backend/internal/search"
	"github.com/heritago/backend/internal/storage"
)

// Options carries the collaborators of a Handler.
type Options struct {
	Heritages   database.HeritageRepository
	Multimedia  database.MultimediaRepository
	Annotations database.AnnotationRepository
	Users       database.UserRepository

	HeritageCache   cache.Cache[models.Heritage]
	AnnotationCache cache.Cache[models.Annotation]

	Search          search.Searcher
	HeritageIndex   string
	AnnotationIndex string

	Media          storage.Store
	MaxUploadBytes int64

	// TrustForwardedHeaders is set when a proxy in front of the handler
	// owns X-Forwarded-Host and X-Forwarded-Proto.
	TrustForwardedHeaders bool

	Tokens *auth.TokenService
	Logger *zap.Logger
}

// Handler provides HTTP handlers for heritage, multimedia, annotation and user operations.
type Handler struct {
	heritages   database.HeritageRepository
	multimedia  database.MultimediaRepository
	annotations database.AnnotationRepository
	users       database.UserRepository

	heritageCache   cache.Cache[models.Heritage]
	annotationCache cache.Cache[models.Annotation]

	search          search.Searcher
	heritageIndex   string
	annotationIndex string

	media          storage.Store
	maxUploadBytes int64

	trustForwarded bool

	tokens *auth.TokenService
	logger *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(opts Options) *Handler {
	return &Handler{
		heritages:       opts.Heritages,
		multimedia:      opts.Multimedia,
		annotations:     opts.Annotations,
		users:           opts.Users,
		heritageCache:   opts.HeritageCache,
		annotationCache: opts.AnnotationCache,
		search:          opts.Search,
		heritageIndex:   opts.HeritageIndex,
		annotationIndex: opts.AnnotationIndex,
		media:           opts.Media,
		maxUploadBytes:  opts.MaxUploadBytes,
		trustForwarded:  opts.TrustForwardedHeaders,
		tokens:          opts.Tokens,
		logger:          opts.Logger,
	}
}

// RegisterRoutes registers the handler routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("", auth.Authenticate(h.tokens))

	api.GET("/heritages", h.ListHeritages)
	api.POST("/heritages", h.CreateHeritage)
	api.GET("/heritages/:heritage_id", h.GetHeritage)
	api.PUT("/heritages/:heritage_id", h.ReplaceHeritage)
	api.PATCH("/heritages/:heritage_id", h.UpdateHeritage)
	api.DELETE("/heritages/:heritage_id", h.DeleteHeritage)

	api.GET("/heritages/:heritage_id/multimedia", h.ListMultimedia)
	api.POST("/heritages/:heritage_id/multimedia", h.CreateMultimedia)
	api.GET("/multimedia/:multimedia_id", h.GetMultimedia)
	api.DELETE("/multimedia/:multimedia_id", h.DeleteMultimedia)
	api.GET("/multimedia/:multimedia_id/file", h.GetMultimediaFile)

	api.GET("/heritages/:heritage_id/annotations", h.ListHeritageAnnotations)
	api.POST("/heritages/:heritage_id/annotations", h.CreateHeritageAnnotation)
	api.GET("/heritages/:heritage_id/annotations/:annotation_id", h.GetAnnotation)
	api.PUT("/heritages/:heritage_id/annotations/:annotation_id", h.ReplaceAnnotation)
	api.PATCH("/heritages/:heritage_id/annotations/:annotation_id", h.UpdateAnnotation)
	api.DELETE("/heritages/:heritage_id/annotations/:annotation_id", h.DeleteAnnotation)

	api.GET("/annotations", h.ListPaleAnnotations)
	api.POST("/annotations", h.CreatePaleAnnotation)
	api.GET("/annotations/:annotation_id", h.GetPaleAnnotation)
	api.PUT("/annotations/:annotation_id", h.ReplacePaleAnnotation)
	api.PATCH("/annotations/:annotation_id", h.UpdatePaleAnnotation)
	api.DELETE("/annotations/:annotation_id", h.DeleteAnnotation)

	api.POST("/users", h.CreateUser)
	api.POST("/auth/token", h.IssueToken)

	self := api.Group("/users", auth.RequireAuthenticated())
	self.GET("/me", h.GetMe)
	self.PUT("/me", h.ReplaceMe)
	self.PATCH("/me", h.UpdateMe)
	self.GET("/:user_id", h.GetUser)
	self.PUT("/:user_id", h.ReplaceUser)
	self.PATCH("/:user_id", h.UpdateUser)
}

// searchFallback answers a list request from the search service when a keyword is
// given. The body is the bare sequence of _source payloads. It reports whether it
// wrote a response.
func (h *Handler) searchFallback(c *gin.Context, index string) bool {
	keyword := c.Query("keyword")
	if keyword == "" {
		return false
	}

	sources, err := h.search.Search(c.Request.Context(), index, keyword)
	if err != nil {
		h.logger.Error("Search failed",
			zap.String("index", index),
			zap.String("keyword", keyword),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "search_unavailable",
			Message: "search service is not available",
		})
		return true
	}

	c.JSON(http.StatusOK, sources)
	return true
}

// indexDocument pushes doc to the search service; failures only get logged.
func (h *Handler) indexDocument(ctx context.Context, index, id string, doc any) {
	if err := h.search.Index(ctx, index, id, doc); err != nil {
		h.logger.Warn("Failed to index document",
			zap.String("index", index),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// removeDocument drops a document from the search service; failures only get logged.
func (h *Handler) removeDocument(ctx context.Context, index, id string) {
	if err := h.search.Remove(ctx, index, id); err != nil {
		h.logger.Warn("Failed to remove document from index",
			zap.String("index", index),
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

func (h *Handler) internalError(c *gin.Context, message string, err error) {
	h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: message,
	})
}

// storeError writes 404 for missing rows, 400 for values the store rejects
// and 500 for everything else.
func (h *Handler) storeError(c *gin.Context, err error, notFoundMessage, failureMessage string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		notFound(c, notFoundMessage)
	case errors.Is(err, database.ErrInvalid):
		invalidRequest(c, err)
	default:
		h.internalError(c, failureMessage, err)
	}
}

// absoluteURL rebuilds the URL the client used. Forwarding headers are only
// honored when the handler sits behind a trusted proxy.
func (h *Handler) absoluteURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if h.trustForwarded {
		switch proto := firstHeaderValue(r.Header.Get("X-Forwarded-Proto")); proto {
		case "http", "https":
			scheme = proto
		}
		if forwarded := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); validHost(forwarded) {
			host = forwarded
		}
	}

	return scheme + "://" + host + r.URL.RequestURI()
}

func firstHeaderValue(value string) string {
	first, _, _ := strings.Cut(value, ",")
	return strings.TrimSpace(first)
}

// validHost rejects values that would change the path, query or userinfo of a URL.
func validHost(host string) bool {
	return host != "" && !strings.ContainsAny(host, "/\\?#@ ")
}
