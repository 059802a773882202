package models

// NotificationChannel identifies a delivery channel
type NotificationChannel string

const (
	ChannelApp   NotificationChannel = "APP"
	ChannelEmail NotificationChannel = "EMAIL"
)

// Notification is an in-app notification shown to a user.
type Notification struct {
	BaseModel
	ReceiverID    string  `gorm:"size:36;index;not null" json:"receiverId"`
	ReceiverRole  Role    `gorm:"size:20;not null" json:"receiverRole"`
	Title         string  `gorm:"size:255;not null" json:"title"`
	Message       string  `gorm:"type:text" json:"message"`
	AppointmentID *string `gorm:"size:36" json:"appointmentId,omitempty"`
	IsRead        bool    `gorm:"default:false" json:"isRead"`
}

// NotificationLog records every dispatch attempt. The (event, user, entity,
// channel) tuple is checked before sending so each event is delivered at
// most once per channel.
type NotificationLog struct {
	BaseModel
	EventType    string              `gorm:"size:50;index:idx_dispatch,priority:1;not null" json:"eventType"`
	UserID       string              `gorm:"size:36;index:idx_dispatch,priority:2;not null" json:"userId"`
	EntityID     string              `gorm:"size:36;index:idx_dispatch,priority:3" json:"entityId"`
	Channel      NotificationChannel `gorm:"size:10;index:idx_dispatch,priority:4" json:"channel"`
	Status       string              `gorm:"size:10" json:"status"` // SUCCESS or FAILED
	ErrorMessage string              `gorm:"size:255" json:"errorMessage,omitempty"`
}
