package models

import "time"

type NotificationType string

const (
	NotificationDiscount NotificationType = "discount"
	NotificationOrder    NotificationType = "order"
	NotificationSystem   NotificationType = "system"
)

type Notification struct {
	ID        string           `json:"id" bson:"_id,omitempty"`
	UserID    int64            `json:"user_id" bson:"user_id"`
	Title     string           `json:"title" bson:"title"`
	Message   string           `json:"message" bson:"message"`
	Type      NotificationType `json:"type" bson:"type"`
	Read      bool             `json:"read" bson:"read"`
	Link      string           `json:"link,omitempty" bson:"link,omitempty"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}

type CreateNotificationRequest struct {
	UserID  int64            `json:"user_id" binding:"required"`
	Title   string           `json:"title" binding:"required"`
	Message string           `json:"message" binding:"required"`
	Type    NotificationType `json:"type" binding:"omitempty,oneof=discount order system"`
	Link    string           `json:"link"`
}
