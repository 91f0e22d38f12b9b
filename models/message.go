package models

import (
	"time"
)

// Message is one entry in the thread shared by a request's builder and its
// accepted reviewer.
type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RequestID      uint      `json:"request_id" gorm:"not null;index"`
	SenderID       uint      `json:"sender_id" gorm:"not null"`
	Body           string    `json:"body" gorm:"type:text;not null"`
	AttachmentURL  string    `json:"attachment_url,omitempty" gorm:"type:varchar(500)"`
	AttachmentName string    `json:"attachment_name,omitempty" gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`

	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageCreate struct {
	Body string `json:"body" form:"body"`
}
