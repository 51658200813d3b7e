package models

import "time"

// Message is one chat message. Rows are append-only: never updated or
// deleted once written. Seq is assigned per conversation at insert time and
// breaks ties between messages sharing a SentAt; it also versions the
// snapshots the store delivers to subscribers.
type Message struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	ConversationKey string    `json:"conversationKey" gorm:"size:64;not null;index:idx_messages_conv_order,priority:1"`
	SenderID        uint      `json:"senderID" gorm:"not null;index"`
	SenderRole      string    `json:"senderRole" gorm:"size:12;not null"` // buyer, seller, agent
	Text            string    `json:"text" gorm:"type:text"`
	ClientToken     string    `json:"clientToken,omitempty" gorm:"size:36;index"`
	SentAt          time.Time `json:"sentAt" gorm:"not null;index:idx_messages_conv_order,priority:2"`
	Seq             uint64    `json:"seq" gorm:"not null;index:idx_messages_conv_order,priority:3"`
}
