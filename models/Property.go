package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	HostID       uint           `json:"hostID" gorm:"index"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PropertyType string         `json:"propertyType"` // apartment, house, plot, commercial
	AddressLine1 string         `json:"addressLine1"`
	AddressLine2 string         `json:"addressLine2"`
	City         string         `json:"city"`
	State        string         `json:"state"`
	Zip          string         `json:"zip"`
	Country      string         `json:"country"`
	Lat          float32        `json:"lat"`
	Lng          float32        `json:"lng"`
	Bedrooms     int            `json:"bedrooms"`
	Bathrooms    float32        `json:"bathrooms"`
	Price        float32        `json:"price"`
	Currency     string         `json:"currency"`
	Images       datatypes.JSON `json:"images"`
	IsActive     *bool          `json:"isActive"`
	Host         User           `json:"host" gorm:"foreignKey:HostID;references:ID"`
}
