package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"loan-recovery/internal/api/handler/dto"
	"loan-recovery/internal/notification"
	"loan-recovery/internal/pkg/apperrors"
)

// NotificationHandler serves the in-process notification inbox. It is only
// mounted when the notification sink runs in memory mode; with an AMQP sink
// the inbox lives in whatever consumes the exchange.
type NotificationHandler struct {
	store  *notification.MemoryStore
	logger *slog.Logger
}

func NewNotificationHandler(store *notification.MemoryStore, l *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		store:  store,
		logger: l.With("component", "NotificationHandler"),
	}
}

// ListNotifications returns the caller's notifications, newest first.
//
// @Summary List my notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.Envelope
// @Router /notifications [get]
// @Security BearerAuth
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	items := h.store.ListByUser(p.UserID)
	env := dto.OKWithCount(map[string]any{
		"notifications": dto.NewNotificationListResponse(items),
		"unread":        h.store.UnreadCount(p.UserID),
	}, len(items))
	respondJSON(w, http.StatusOK, env)
}

// MarkRead marks one of the caller's notifications as read.
//
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param notificationID path int true "Notification ID"
// @Success 200 {object} dto.Envelope
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /notifications/{notificationID}/read [patch]
// @Security BearerAuth
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	notificationID, err := idFromURL(r, "notificationID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.store.MarkRead(p.UserID, notificationID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.OKWithMessage("Notification marked as read", nil))
}

// MarkAllRead marks every unread notification of the caller as read.
//
// @Summary Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.Envelope
// @Router /notifications/read-all [patch]
// @Security BearerAuth
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	marked := h.store.MarkAllRead(p.UserID)
	respondJSON(w, http.StatusOK, dto.OKWithMessage(
		fmt.Sprintf("%d notifications marked as read", marked), nil,
	))
}
