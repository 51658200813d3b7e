package models

import "gorm.io/gorm"

// Inquiry is the durable record of a buyer asking about a property.
// The chat bridge reads BuyerID/SellerID/PropertyID to derive the
// conversation key and advances Status; everything else is owned by the
// CRUD layer.
type Inquiry struct {
	gorm.Model
	BuyerID    uint   `json:"buyerID" gorm:"not null;index"`
	SellerID   uint   `json:"sellerID" gorm:"not null;index"`
	PropertyID uint   `json:"propertyID" gorm:"not null;index"`
	Message    string `json:"message" gorm:"type:text"`
	Status     string `json:"status" gorm:"size:12;default:new;index"` // new, read, replied, closed

	Buyer    User     `json:"buyer" gorm:"foreignKey:BuyerID;references:ID"`
	Seller   User     `json:"seller" gorm:"foreignKey:SellerID;references:ID"`
	Property Property `json:"property" gorm:"foreignKey:PropertyID;references:ID"`
}
