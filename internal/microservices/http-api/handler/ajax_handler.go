package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ratings/internal/display"
	"ratings/internal/microservices/http-api/dto"
	"ratings/internal/microservices/http-api/middleware"
	"ratings/internal/microservices/http-api/models"
	"ratings/internal/microservices/http-api/service"
	"ratings/internal/permission"
)

// AjaxHandler serves the rating widget: it records a vote and answers with
// the refreshed display fragment.
type AjaxHandler struct {
	ratingService service.RatingService
	perms         service.PermissionChecker
	votes         VoteSettings
	defaultStyle  display.Style
	logger        *slog.Logger
}

func NewAjaxHandler(ratingService service.RatingService, perms service.PermissionChecker, votes VoteSettings, defaultStyle display.Style, logger *slog.Logger) *AjaxHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AjaxHandler{
		ratingService: ratingService,
		perms:         perms,
		votes:         votes,
		defaultStyle:  defaultStyle,
		logger:        logger,
	}
}

func (h *AjaxHandler) RegisterRoutes(router *gin.RouterGroup, voteLimit gin.HandlerFunc) {
	router.POST("/rate", voteLimit, h.Rate)
}

// Rate handles POST /ajax/rate
func (h *AjaxHandler) Rate(c *gin.Context) {
	var form dto.AjaxRateForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	style := h.defaultStyle
	if strings.TrimSpace(form.RatingType) != "" {
		parsed, err := display.ParseStyle(form.RatingType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		style = parsed
	}

	caller := middleware.Caller(c)
	// the widget instance includes the display style, unlike the item instance
	widget := strings.Join([]string{form.Module, string(style), form.ObjectID}, ":")
	if !h.perms.Check(caller, permission.Component, widget, permission.LevelComment) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Sorry! No authorization to access this module."})
		return
	}

	flags, err := h.votes.sessionFor(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.ratingService.RateItem(ctx, service.RateRequest{
		Module:  form.Module,
		ItemID:  form.ObjectID,
		Rating:  form.Rating,
		Caller:  caller,
		Policy:  h.votes.Policy,
		Session: flags,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	current := result.Rating
	if !result.Accepted {
		current, err = h.ratingService.GetRating(ctx, caller, service.Lookup{Module: form.Module, ItemID: form.ObjectID})
		if err != nil {
			writeError(c, h.logger, err)
			return
		}
	}

	key := models.ItemKey{Module: form.Module, ItemID: form.ObjectID}
	html, err := display.Render(style, key, current, form.ReturnURL)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.AjaxResponse{Result: string(html)})
}
