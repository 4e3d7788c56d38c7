package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/campusrate/backend/internal/middleware"
	"github.com/campusrate/backend/internal/models"
	"github.com/campusrate/backend/internal/repositories"
	"github.com/campusrate/backend/pkg/apperrors"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler handles HTTP requests for the notification feed
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	professorRepository    repositories.ProfessorRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationRepo repositories.NotificationRepository, professorRepo repositories.ProfessorRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notificationRepo,
		professorRepository:    professorRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// ListNotifications returns the caller's notifications, newest first, with
// each review or comment reference resolved into the referenced document.
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	notifications, err := h.notificationRepository.GetByRecipientID(claims.UserID)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	ctx := c.Request().Context()
	feed := make([]map[string]interface{}, 0, len(notifications))
	for i := range notifications {
		feed = append(feed, map[string]interface{}{
			"notification": notifications[i],
			"reference":    h.resolveReference(ctx, &notifications[i]),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": feed,
		"count":         len(feed),
	})
}

// resolveReference joins the referenced review or comment onto a feed entry.
// Resolution is best-effort: a reference whose target is gone (review deleted
// after the notification landed) comes back nil rather than failing the feed.
func (h *NotificationHandler) resolveReference(ctx context.Context, notification *models.Notification) map[string]interface{} {
	referenceID, err := primitive.ObjectIDFromHex(notification.ReferenceID)
	if err != nil {
		return nil
	}

	switch notification.ReferenceModel {
	case models.ReferenceReview:
		professor, err := h.professorRepository.GetProfessorByReviewID(ctx, referenceID)
		if err != nil {
			return nil
		}
		review := professor.FindReview(referenceID)
		if review == nil {
			return nil
		}
		return map[string]interface{}{
			"review":    review,
			"professor": professorSummary(professor),
		}

	case models.ReferenceComment:
		professor, err := h.professorRepository.GetProfessorByCommentID(ctx, referenceID)
		if err != nil {
			return nil
		}
		review, comment := professor.FindComment(referenceID)
		if comment == nil {
			return nil
		}
		return map[string]interface{}{
			"comment":   comment,
			"review":    review,
			"professor": professorSummary(professor),
		}
	}
	return nil
}

func professorSummary(professor *models.ProfessorAccount) map[string]interface{} {
	return map[string]interface{}{
		"id":         professor.ID,
		"first_name": professor.FirstName,
		"last_name":  professor.LastName,
	}
}

// GetUnreadCount returns the number of unread notifications for the caller
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	count, err := h.notificationRepository.GetUnreadCount(claims.UserID)
	if err != nil {
		return respondError(c, apperrors.Internal(err))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"unreadCount": count})
}

// MarkAsRead marks one of the caller's notifications as read. The recipient
// scoping happens inside the repository lookup, so another user's
// notification is never touched.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	id, err := parseNotificationID(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	notification, err := h.notificationRepository.MarkAsRead(id, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"notification": notification})
}

// DeleteNotification removes one of the caller's notifications
func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	claims := middleware.CurrentClaims(c)

	id, err := parseNotificationID(c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.notificationRepository.DeleteNotification(id, claims.UserID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "notification deleted"})
}

func parseNotificationID(value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, apperrors.Validation("invalid notification ID")
	}
	return uint(id), nil
}
