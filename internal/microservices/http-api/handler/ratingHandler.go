package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ratings/internal/microservices/http-api/dto"
	"ratings/internal/microservices/http-api/middleware"
	"ratings/internal/microservices/http-api/service"
	"ratings/internal/session"
)

// VoteSettings carries the duplicate policy and, for the medium policy, the
// session plumbing a vote needs.
type VoteSettings struct {
	Policy   service.DuplicatePolicy
	Sessions *session.Manager
	Flags    session.Flags
}

// sessionFor returns the request's session flags, or nil when the policy does not use them.
func (v VoteSettings) sessionFor(c *gin.Context) (service.SessionFlags, error) {
	if v.Policy != service.PolicyMedium || v.Sessions == nil || v.Flags == nil {
		return nil, nil
	}
	sid, err := v.Sessions.ID(c.Writer, c.Request)
	if err != nil {
		return nil, err
	}
	return session.Bind(v.Flags, sid), nil
}

type RatingHandler struct {
	ratingService service.RatingService
	votes         VoteSettings
	logger        *slog.Logger
}

func NewRatingHandler(ratingService service.RatingService, votes VoteSettings, logger *slog.Logger) *RatingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingHandler{
		ratingService: ratingService,
		votes:         votes,
		logger:        logger,
	}
}

// RegisterRoutes registers rating routes. voteLimit guards the write route.
func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup, voteLimit gin.HandlerFunc) {
	ratings := router.Group("/ratings")
	{
		ratings.GET("", h.List)
		ratings.GET("/count", h.Count)
		ratings.GET("/:rating_id", h.GetByID)
		ratings.GET("/items/:module/:item_id", h.GetByItem)
		ratings.POST("/items/:module/:item_id", voteLimit, h.Rate)
	}
}

// List retrieves aggregates, optionally filtered by module
// GET /api/ratings?module=News&sortby=rating&order=ASC&limit=10
func (h *RatingHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	ratings, err := h.ratingService.ListRatings(c.Request.Context(), middleware.Caller(c), service.ListQuery{
		Module:        c.Query("module"),
		SortField:     c.Query("sortby"),
		SortDirection: c.Query("order"),
		MaxItems:      limit,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRatingListResponse(ratings))
}

// Count returns the number of rated items
// GET /api/ratings/count
func (h *RatingHandler) Count(c *gin.Context) {
	n, err := h.ratingService.CountRatings(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

// GetByID retrieves one aggregate by its id
// GET /api/ratings/:rating_id
func (h *RatingHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("rating_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rating ID"})
		return
	}

	rating, err := h.ratingService.GetRating(c.Request.Context(), middleware.Caller(c), service.Lookup{ID: id})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.RatingEnvelope{Data: dto.FromModelToRatingResponse(rating)})
}

// GetByItem retrieves the aggregate of one item
// GET /api/ratings/items/:module/:item_id
func (h *RatingHandler) GetByItem(c *gin.Context) {
	rating, err := h.ratingService.GetRating(c.Request.Context(), middleware.Caller(c), service.Lookup{
		Module: c.Param("module"),
		ItemID: c.Param("item_id"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.RatingEnvelope{Data: dto.FromModelToRatingResponse(rating)})
}

// Rate records a vote for an item
// POST /api/ratings/items/:module/:item_id
func (h *RatingHandler) Rate(c *gin.Context) {
	var req dto.RateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flags, err := h.votes.sessionFor(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	result, err := h.ratingService.RateItem(c.Request.Context(), service.RateRequest{
		Module:  c.Param("module"),
		ItemID:  c.Param("item_id"),
		Rating:  req.Rating,
		Caller:  middleware.Caller(c),
		Policy:  h.votes.Policy,
		Session: flags,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRateItemResponse(result.Accepted, result.Rating))
}
