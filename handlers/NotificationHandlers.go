package handlers

import (
	"backend/models"
	"backend/services"
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// userIDFromSession resolves the Authorization session token to a user ID.
func userIDFromSession(c *gin.Context, db *sql.DB) (int, bool) {
	sessionID := c.GetHeader("Authorization")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization header is required"})
		return 0, false
	}

	var userID int
	err := db.QueryRow("SELECT user_id FROM session WHERE session_id = $1", sessionID).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching session: " + err.Error()})
		}
		return 0, false
	}
	return userID, true
}

// GetMyNotificationsHandler returns notifications for the current user.
// @Summary Get my notifications
// @Description Returns all notifications for the current user, newest first. Requires Authorization header.
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 200 {array} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications [get]
func GetMyNotificationsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromSession(c, db)
		if !ok {
			return
		}

		rows, err := db.Query(`
		SELECT id, user_id, message, status, action, created_at, updated_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
			return
		}
		defer rows.Close()

		notifications := []models.Notification{}
		for rows.Next() {
			var n models.Notification
			if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Status, &n.Action, &n.CreatedAt, &n.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning notification"})
				return
			}
			notifications = append(notifications, n)
		}

		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationAsReadHandler marks a notification as read.
// @Summary Mark notification as read
// @Description Marks a notification by ID as read
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/notifications/{id}/read [put]
func MarkNotificationAsReadHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		notifID := c.Param("id")

		_, err := db.Exec("UPDATE notifications SET status = 'read', updated_at = NOW() WHERE id = $1", notifID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
	}
}

// MarkAllNotificationsAsReadHandler marks every unread notification as read
// for the current user.
// @Summary Mark all notifications as read
// @Description Marks all unread notifications for the current user as read. Requires Authorization header.
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/notifications/read-all [put]
func MarkAllNotificationsAsReadHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromSession(c, db)
		if !ok {
			return
		}

		result, err := db.Exec(`
		UPDATE notifications
		SET status = 'read', updated_at = NOW()
		WHERE user_id = $1 AND status = 'unread'`, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
			return
		}

		rowsAffected, _ := result.RowsAffected()
		c.JSON(http.StatusOK, gin.H{
			"message":       "All notifications marked as read",
			"rows_affected": rowsAffected,
		})
	}
}

// DeleteNotificationHandler removes a notification.
// @Summary Delete notification
// @Description Delete a notification by ID
// @Tags Notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/notifications/{id} [delete]
func DeleteNotificationHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		notifID := c.Param("id")

		_, err := db.Exec("DELETE FROM notifications WHERE id = $1", notifID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
	}
}

// RegisterFCMTokenHandler stores the caller's device push token.
// @Summary Register FCM token
// @Description Registers an FCM device token for the current user. Requires Authorization header.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param body body object true "token"
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/fcm/register-token [post]
func RegisterFCMTokenHandler(db *sql.DB, fcmService *services.FCMService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromSession(c, db)
		if !ok {
			return
		}

		var request struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.BindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Token is required."})
			return
		}

		if fcmService != nil {
			if err := fcmService.SaveFCMToken(userID, request.Token); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save FCM token: " + err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "FCM token registered successfully"})
	}
}

// RemoveFCMTokenHandler clears the caller's device push token.
// @Summary Remove FCM token
// @Description Removes the FCM device token for the current user. Requires Authorization header.
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/fcm/remove-token [delete]
func RemoveFCMTokenHandler(db *sql.DB, fcmService *services.FCMService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFromSession(c, db)
		if !ok {
			return
		}

		if fcmService != nil {
			if err := fcmService.RemoveFCMToken(userID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove FCM token: " + err.Error()})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
	}
}

// SendPushNotification pushes to one user and records the in-app
// notification. Used by handlers that fire-and-forget notifications.
func SendPushNotification(db *sql.DB, fcmService *services.FCMService, userID int, title, body string, data map[string]string, action string) {
	if fcmService == nil {
		return
	}
	if err := fcmService.SendNotificationWithDB(context.Background(), userID, title, body, data, action); err != nil {
		log.Printf("Error sending push notification to user %d: %v", userID, err)
	}
}
