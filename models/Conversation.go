package models

import "time"

// Conversation is a directory entry for a two-party chat about one
// property. Key is derived (chat.DeriveKey), so the same triple always maps
// to the same row and concurrent create-or-get calls cannot duplicate it.
// LastMessage* fields are a denormalized preview for list views; the
// authoritative ordering lives in messages.
type Conversation struct {
	Key             string    `json:"key" gorm:"primaryKey;size:64"`
	BuyerID         uint      `json:"buyerID" gorm:"not null;index"`
	CounterpartID   uint      `json:"counterpartID" gorm:"not null;index"`
	CounterpartRole string    `json:"counterpartRole" gorm:"size:12;not null"` // seller, agent
	PropertyID      uint      `json:"propertyID" gorm:"not null;index"`
	LastMessageText string    `json:"lastMessageText" gorm:"size:1024"`
	LastMessageAt   time.Time `json:"lastMessageAt" gorm:"index"`
	LastSenderID    uint      `json:"lastSenderID"`
	CreatedAt       time.Time `json:"createdAt"`
}
