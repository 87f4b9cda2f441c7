// Package handlers provides HTTP request handlers
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cosmicwatch/internal/auth"
	"cosmicwatch/internal/chat"
	"cosmicwatch/internal/clients"
	"cosmicwatch/internal/domain"
	"cosmicwatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxRangeDays = 365

// Handler holds all service dependencies
type Handler struct {
	Neo       *services.NeoService
	Auth      *services.AuthService
	Watchlist *services.WatchlistService
	Hub       *chat.Hub
	log       logrus.FieldLogger
}

// NewHandler creates a new handler with services
func NewHandler(neo *services.NeoService, authSvc *services.AuthService, watchlist *services.WatchlistService, hub *chat.Hub, log logrus.FieldLogger) *Handler {
	return &Handler{
		Neo:       neo,
		Auth:      authSvc,
		Watchlist: watchlist,
		Hub:       hub,
		log:       log,
	}
}

// Root handles the service banner
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Cosmic Watch API is running"})
}

// Health handles health check requests
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Health{
		Status: "ok",
		Now:    time.Now().UTC(),
	})
}

// Favicon answers browser favicon probes with no content.
func (h *Handler) Favicon(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Register handles account creation
func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("VALIDATION_ERROR", err.Error()))
		return
	}

	token, err := h.Auth.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("INVALID_EMAIL", "Email format is invalid"))
	case errors.Is(err, services.ErrUserExists):
		c.JSON(http.StatusConflict, domain.ErrorResponse("USER_EXISTS", "Username or email already exists"))
	case err != nil:
		h.log.WithError(err).Error("register failed")
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("DB_ERROR", "Database unavailable"))
	default:
		c.JSON(http.StatusOK, token)
	}
}

// Login handles credential verification
func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("VALIDATION_ERROR", err.Error()))
		return
	}

	token, err := h.Auth.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, domain.ErrorResponse("INVALID_CREDENTIALS", "Username or password is incorrect"))
	case err != nil:
		h.log.WithError(err).Error("login failed")
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("DB_ERROR", "Database unavailable"))
	default:
		c.JSON(http.StatusOK, token)
	}
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

// GetWatchlist lists the authenticated user's watchlist.
func (h *Handler) GetWatchlist(c *gin.Context) {
	items, err := h.Watchlist.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.log.WithError(err).Error("watchlist list failed")
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("DB_ERROR", "Database unavailable"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// UpsertWatchlist creates or updates a watchlist entry.
func (h *Handler) UpsertWatchlist(c *gin.Context) {
	var req domain.WatchItemUpsert
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("VALIDATION_ERROR", err.Error()))
		return
	}

	item, err := h.Watchlist.Upsert(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		h.log.WithError(err).Error("watchlist upsert failed")
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("DB_ERROR", "Database unavailable"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteWatchlist removes a watchlist entry, idempotently.
func (h *Handler) DeleteWatchlist(c *gin.Context) {
	asteroidID := c.Param("asteroid_id")
	if err := h.Watchlist.Delete(c.Request.Context(), currentUser(c).ID, asteroidID); err != nil {
		h.log.WithError(err).Error("watchlist delete failed")
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("DB_ERROR", "Database unavailable"))
		return
	}
	c.Status(http.StatusNoContent)
}

// Feed handles normalized feed requests
func (h *Handler) Feed(c *gin.Context) {
	startDate, endDate, ok := resolveDateRange(c)
	if !ok {
		return
	}

	feed, err := h.Neo.Feed(c.Request.Context(), startDate, endDate)
	if err != nil {
		h.respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

// Lookup handles single-asteroid lookup requests
func (h *Handler) Lookup(c *gin.Context) {
	resp, err := h.Neo.Lookup(c.Request.Context(), c.Param("asteroid_id"))
	if err != nil {
		h.respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RawFeed returns the merged upstream payload without normalization.
func (h *Handler) RawFeed(c *gin.Context) {
	startDate, endDate, ok := resolveDateRange(c)
	if !ok {
		return
	}

	payload, err := h.Neo.FetchFeedRange(c.Request.Context(), startDate, endDate)
	if err != nil {
		h.respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

// TodaySummary returns today's feed aggregated by risk category.
func (h *Handler) TodaySummary(c *gin.Context) {
	summary, err := h.Neo.TodaySummary(c.Request.Context())
	if err != nil {
		h.respondUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RequireUser is the bearer-token authentication middleware.
func (h *Handler) RequireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, domain.ErrorResponse("AUTH_REQUIRED", "Missing bearer token"))
		return
	}

	user, err := h.Auth.UserFromToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, services.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, domain.ErrorResponse("INVALID_TOKEN", "Token is invalid or expired"))
			return
		}
		h.log.WithError(err).Error("token resolution failed")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, domain.ErrorResponse("DB_ERROR", "Database unavailable"))
		return
	}

	c.Set("user", user)
	c.Next()
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet("user").(*domain.User)
}

// resolveDateRange reads start_date/end_date query parameters, defaulting to
// today and to start respectively, and rejects inverted or oversized ranges
// before anything reaches the upstream client.
func resolveDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	startDate, ok := parseDateParam(c, "start_date", today)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	endDate, ok := parseDateParam(c, "end_date", startDate)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	if endDate.Before(startDate) {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("INVALID_DATE_RANGE", "end_date cannot be before start_date"))
		return time.Time{}, time.Time{}, false
	}
	if int(endDate.Sub(startDate).Hours()/24) > maxRangeDays {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("INVALID_DATE_RANGE", "date range cannot exceed 365 days"))
		return time.Time{}, time.Time{}, false
	}
	return startDate, endDate, true
}

func parseDateParam(c *gin.Context, name string, defaultVal time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return defaultVal, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, domain.ErrorResponse("INVALID_DATE_RANGE", name+" must be a YYYY-MM-DD date"))
		return time.Time{}, false
	}
	return parsed, true
}

// respondUpstreamError maps the upstream failure taxonomy onto HTTP
// responses: rate limiting is a 503 worth retrying, everything else a 502.
func (h *Handler) respondUpstreamError(c *gin.Context, err error) {
	var authErr *clients.AuthError
	var upstreamErr *clients.UpstreamError

	switch {
	case errors.Is(err, clients.ErrRateLimited):
		c.JSON(http.StatusServiceUnavailable, domain.ErrorResponse("NASA_RATE_LIMIT", "NASA API rate limit reached. Retry shortly."))
	case errors.As(err, &authErr):
		c.JSON(http.StatusBadGateway, domain.ErrorResponse("NASA_AUTH_ERROR", "NASA API key rejected the request."))
	case errors.As(err, &upstreamErr):
		h.log.WithError(err).Warn("upstream fetch failed")
		c.JSON(http.StatusBadGateway, domain.ErrorResponse("NASA_UPSTREAM_ERROR", "Unable to fetch data from NASA NeoWs."))
	default:
		h.log.WithError(err).Error("unexpected feed failure")
		c.JSON(http.StatusBadGateway, domain.ErrorResponse("NASA_UPSTREAM_ERROR", "Unable to fetch data from NASA NeoWs."))
	}
}

// SetupRoutes configures all routes
func SetupRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/favicon.ico", h.Favicon)

	// Auth endpoints
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", h.RequireUser, h.Me)

	// Watchlist endpoints
	r.GET("/watchlist", h.RequireUser, h.GetWatchlist)
	r.POST("/watchlist", h.RequireUser, h.UpsertWatchlist)
	r.DELETE("/watchlist/:asteroid_id", h.RequireUser, h.DeleteWatchlist)

	// NEO endpoints
	r.GET("/feed", h.Feed)
	r.GET("/lookup/:asteroid_id", h.Lookup)
	r.GET("/api/neo/feed", h.Feed)
	r.GET("/api/neo/raw", h.RawFeed)
	r.GET("/api/neo/today-summary", h.TodaySummary)

	// Live chat
	r.GET("/ws/chat", h.ChatSocket)
}
