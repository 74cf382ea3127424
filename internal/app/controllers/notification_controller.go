package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hubtc/portal/internal/app/models/dto"
	"github.com/hubtc/portal/internal/app/services"
	"github.com/hubtc/portal/internal/middleware"
	"github.com/hubtc/portal/internal/pkg/helpers"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationController exposes the caller's notification inbox
type NotificationController struct {
	notificationService services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notificationService services.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// ListNotifications godoc
// @Summary List notifications
// @Description Lists the caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Page size (1..200, default 50)"
// @Success 200 {object} dto.APIResponse{data=[]dto.NotificationResponse}
// @Failure 401 {object} dto.ErrorResponse "Unauthorized: JWT token missing or invalid"
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}

	unreadOnly, _ := strconv.ParseBool(ctx.Query("unread"))
	limit := helpers.ParseLimit(ctx, defaultNotificationLimit, maxNotificationLimit)

	notifications, err := c.notificationService.List(ctx.Request.Context(), userID, unreadOnly, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notifications))
}

// MarkNotificationRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationResponse}
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [patch]
func (c *NotificationController) MarkNotificationRead(ctx *gin.Context) {
	userID, ok := sessionUserID(ctx)
	if !ok {
		return
	}
	notificationID, ok := pathID(ctx, "id", "notification")
	if !ok {
		return
	}

	notification, err := c.notificationService.MarkRead(ctx.Request.Context(), notificationID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(notification))
}
