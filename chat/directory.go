package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vedantlights/indiapropertys-sub000/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Directory maps users to the conversations they participate in.
// Conversations are created lazily on first contact.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// CreateOrGet returns the one conversation for the triple, creating it if
// absent. The derived key is the primary key, so concurrent callers racing
// on the same triple insert-or-skip against the same row and all read back
// the same record.
func (d *Directory) CreateOrGet(ctx context.Context, buyerID, counterpartID uint, counterpartRole string, propertyID uint) (models.Conversation, error) {
	key, err := DeriveKey(buyerID, counterpartID, propertyID)
	if err != nil {
		return models.Conversation{}, err
	}

	conv := models.Conversation{
		Key:             key,
		BuyerID:         buyerID,
		CounterpartID:   counterpartID,
		CounterpartRole: counterpartRole,
		PropertyID:      propertyID,
	}
	if err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&conv).Error; err != nil {
		return models.Conversation{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return d.Details(ctx, key)
}

// ListForUser returns every conversation the user participates in, most
// recent activity first. Each call re-queries current state.
func (d *Directory) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	if err := d.db.WithContext(ctx).
		Where("buyer_id = ? OR counterpart_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return convs, nil
}

func (d *Directory) Details(ctx context.Context, key string) (models.Conversation, error) {
	var conv models.Conversation
	err := d.db.WithContext(ctx).First(&conv, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Conversation{}, ErrConversationNotFound
	}
	if err != nil {
		return models.Conversation{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return conv, nil
}
