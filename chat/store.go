package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageStore is the append-only, timestamp-ordered message log. Append
// writes through to the database and pings the notifier; Subscribe reloads
// and delivers the full ordered list on every ping (snapshot delivery, no
// client-side merging).
type MessageStore struct {
	db       *gorm.DB
	notifier ChangeNotifier

	// now is swappable so tests can force equal timestamps.
	now func() time.Time
}

func NewMessageStore(db *gorm.DB, notifier ChangeNotifier) *MessageStore {
	return &MessageStore{db: db, notifier: notifier, now: time.Now}
}

type AppendInput struct {
	ConversationKey string
	SenderID        uint
	SenderRole      string
	Text            string
	// ClientToken is the sender's idempotency token; it is persisted and
	// comes back in snapshots so the sender can match its optimistic echo.
	ClientToken string
}

// Append persists one message and updates the owning conversation's
// denormalized preview in the same transaction, then publishes a change
// signal. The per-conversation Seq assignment makes append the sole,
// atomic mutator of conversation order.
func (s *MessageStore) Append(ctx context.Context, in AppendInput) (models.Message, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	msg := models.Message{
		ID:              uuid.NewString(),
		ConversationKey: in.ConversationKey,
		SenderID:        in.SenderID,
		SenderRole:      in.SenderRole,
		Text:            text,
		ClientToken:     in.ClientToken,
		SentAt:          s.now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Updating the preview first takes the conversation row lock, so
		// concurrent appends serialize here and Seq order always matches
		// commit order. Reading max(seq) before any lock would let two
		// appends claim the same Seq under READ COMMITTED.
		if err := tx.Model(&models.Conversation{}).
			Where("key = ?", in.ConversationKey).
			Updates(map[string]interface{}{
				"last_message_text": text,
				"last_message_at":   msg.SentAt,
				"last_sender_id":    in.SenderID,
			}).Error; err != nil {
			return err
		}

		var last models.Message
		if err := tx.Where("conversation_key = ?", in.ConversationKey).
			Order("seq DESC").Limit(1).Find(&last).Error; err != nil {
			return err
		}
		msg.Seq = last.Seq + 1

		return tx.Create(&msg).Error
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, in.ConversationKey); err != nil {
			log.Printf("chat: publish change for %s: %v", in.ConversationKey, err)
		}
	}
	return msg, nil
}

// Messages loads the full ordered list for a conversation. SentAt orders,
// Seq breaks ties in original write order.
func (s *MessageStore) Messages(ctx context.Context, key string) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.WithContext(ctx).
		Where("conversation_key = ?", key).
		Order("sent_at ASC").Order("seq ASC").
		Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return msgs, nil
}

// Snapshot is one full-state delivery to a subscriber. Version is the
// highest Seq in Messages and grows monotonically per conversation.
type Snapshot struct {
	ConversationKey string           `json:"conversationKey"`
	Messages        []models.Message `json:"messages"`
	Version         uint64           `json:"version"`
}

// Subscription is a live feed for one conversation. Stop unregisters
// synchronously and is idempotent; callers must stop before tearing down
// whatever consumes the snapshots.
type Subscription struct {
	mu          sync.Mutex
	delivered   bool
	lastVersion uint64
	lastCount   int
	onSnapshot  func(Snapshot)
	stopped     bool
	unsubscribe func()
}

// Subscribe registers a live listener. The callback receives the current
// snapshot immediately and again on every change; deliveries that would
// hand the callback an older state than it has already seen are discarded,
// so network-level reordering of reloads cannot roll the view back.
func (s *MessageStore) Subscribe(ctx context.Context, key string, onSnapshot func(Snapshot)) (*Subscription, error) {
	sub := &Subscription{onSnapshot: onSnapshot}

	reload := func() {
		msgs, err := s.Messages(context.Background(), key)
		if err != nil {
			log.Printf("chat: reload %s: %v", key, err)
			return
		}
		var version uint64
		if len(msgs) > 0 {
			version = msgs[len(msgs)-1].Seq
		}
		sub.push(Snapshot{ConversationKey: key, Messages: msgs, Version: version})
	}

	unsubscribe, err := s.notifier.Subscribe(ctx, key, reload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	sub.unsubscribe = unsubscribe

	reload()
	return sub, nil
}

func (sub *Subscription) push(snap Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.stopped {
		return
	}
	// A snapshot is stale when it is older than what the callback has
	// already seen. At an equal version the message count decides: a
	// reload triggered by a slow-committing earlier message carries the
	// same max Seq but more rows, and must still go out.
	if sub.delivered {
		if snap.Version < sub.lastVersion {
			return
		}
		if snap.Version == sub.lastVersion && len(snap.Messages) <= sub.lastCount {
			return
		}
	}
	sub.delivered = true
	sub.lastVersion = snap.Version
	sub.lastCount = len(snap.Messages)
	sub.onSnapshot(snap)
}

func (sub *Subscription) Stop() {
	sub.mu.Lock()
	if sub.stopped {
		sub.mu.Unlock()
		return
	}
	sub.stopped = true
	unsubscribe := sub.unsubscribe
	sub.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
