package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/google/uuid"
)

// reconcileWindow bounds the fallback match between an optimistic entry and
// an authoritative message when no client token is available.
const reconcileWindow = 30 * time.Second

// Session identifies the current user for one controller. It is passed in
// explicitly so the bridge never reads ambient auth state and tests can
// inject fake identities.
type Session struct {
	UserID uint
	Role   string
}

// Controller glues identity, directory, store and status machine into the
// send/receive flow for one (session, inquiry) pair. The local message view
// it maintains is the union of the last authoritative snapshot and any
// optimistic entries still awaiting confirmation.
type Controller struct {
	session   Session
	store     *MessageStore
	directory *Directory
	status    *StatusMachine

	mu           sync.Mutex
	inquiry      models.Inquiry
	conversation models.Conversation
	rendered     []models.Message
	pending      []models.Message
	draft        string
	sub          *Subscription
	onChange     func([]models.Message)
}

func NewController(session Session, inquiry models.Inquiry, store *MessageStore, directory *Directory, status *StatusMachine) *Controller {
	return &Controller{
		session:   session,
		inquiry:   inquiry,
		store:     store,
		directory: directory,
		status:    status,
	}
}

// OnChange registers the UI callback invoked with the rendered message list
// whenever it changes. The callback must not call back into the controller.
func (c *Controller) OnChange(fn func([]models.Message)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Open subscribes to the live feed and, when the opener is the seller side,
// fires the first-view new→read transition. Callers must pair Open with
// Close before tearing down the view.
func (c *Controller) Open(ctx context.Context) error {
	conv, err := c.ensureConversation(ctx)
	if err != nil {
		return err
	}

	sub, err := c.store.Subscribe(ctx, conv.Key, c.applySnapshot)
	if err != nil {
		return err
	}
	c.mu.Lock()
	if c.sub != nil {
		c.sub.Stop()
	}
	c.sub = sub
	c.mu.Unlock()

	if c.session.UserID != c.inquiry.BuyerID {
		c.advanceStatus(ctx, StatusRead)
	}
	return nil
}

// Close stops the live subscription synchronously. Idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Stop()
	}
}

// SendMessage validates, echoes optimistically, appends, and advances the
// inquiry status. On append failure the optimistic entry is rolled back and
// the text is restored as the draft so the sender can retry; the composed
// message is never silently dropped.
func (c *Controller) SendMessage(ctx context.Context, text string) (models.Message, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Message{}, ErrEmptyMessage
	}

	conv, err := c.ensureConversation(ctx)
	if err != nil {
		return models.Message{}, err
	}

	token := uuid.NewString()
	optimistic := models.Message{
		ID:              "local-" + token,
		ConversationKey: conv.Key,
		SenderID:        c.session.UserID,
		SenderRole:      c.senderRole(),
		Text:            trimmed,
		ClientToken:     token,
		SentAt:          time.Now(),
	}

	c.mu.Lock()
	c.pending = append(c.pending, optimistic)
	c.draft = ""
	view, notify := c.viewLocked()
	c.mu.Unlock()
	notify(view)

	msg, err := c.store.Append(ctx, AppendInput{
		ConversationKey: conv.Key,
		SenderID:        c.session.UserID,
		SenderRole:      optimistic.SenderRole,
		Text:            trimmed,
		ClientToken:     token,
	})
	if err != nil {
		c.mu.Lock()
		c.dropPendingLocked(token)
		c.draft = text
		view, notify = c.viewLocked()
		c.mu.Unlock()
		notify(view)
		return models.Message{}, err
	}

	if c.session.UserID != c.inquiry.BuyerID {
		c.advanceStatus(ctx, StatusReplied)
	}
	return msg, nil
}

// MarkAsRead fires the new→read transition. No-op once past new.
func (c *Controller) MarkAsRead(ctx context.Context) {
	c.advanceStatus(ctx, StatusRead)
}

// Messages returns the currently rendered list: last authoritative snapshot
// plus unconfirmed optimistic entries.
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, 0, len(c.rendered)+len(c.pending))
	out = append(out, c.rendered...)
	out = append(out, c.pending...)
	return out
}

// Draft holds the unsent text restored after a failed send.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inquiry.Status
}

func (c *Controller) ConversationKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation.Key
}

// ensureConversation resolves the conversation through create-or-get on
// first use and caches it for the rest of the session.
func (c *Controller) ensureConversation(ctx context.Context) (models.Conversation, error) {
	c.mu.Lock()
	if c.conversation.Key != "" {
		conv := c.conversation
		c.mu.Unlock()
		return conv, nil
	}
	inquiry := c.inquiry
	c.mu.Unlock()

	counterpartRole := RoleSeller
	if c.session.UserID == inquiry.SellerID && c.session.Role == RoleAgent {
		counterpartRole = RoleAgent
	}
	conv, err := c.directory.CreateOrGet(ctx, inquiry.BuyerID, inquiry.SellerID, counterpartRole, inquiry.PropertyID)
	if err != nil {
		return models.Conversation{}, err
	}

	c.mu.Lock()
	c.conversation = conv
	c.mu.Unlock()
	return conv, nil
}

func (c *Controller) senderRole() string {
	if c.session.UserID == c.inquiry.BuyerID {
		return RoleBuyer
	}
	if c.session.Role == RoleAgent {
		return RoleAgent
	}
	return RoleSeller
}

// advanceStatus is best effort: the durable write failing must not fail the
// user's primary action, so it is logged and the local status kept.
func (c *Controller) advanceStatus(ctx context.Context, target string) {
	c.mu.Lock()
	id := c.inquiry.ID
	current := c.inquiry.Status
	c.mu.Unlock()

	next, err := c.status.Advance(ctx, id, current, target)
	if err != nil {
		log.Printf("chat: advance inquiry %d to %s: %v", id, target, err)
		return
	}

	c.mu.Lock()
	c.inquiry.Status = next
	c.mu.Unlock()
}

// applySnapshot replaces the rendered list with the authoritative snapshot,
// refreshes the cached conversation preview, and drops every optimistic
// entry the snapshot supersedes. The subscription has already discarded
// stale deliveries, so whatever arrives here is strictly newer than what is
// on screen.
func (c *Controller) applySnapshot(snap Snapshot) {
	c.mu.Lock()
	c.rendered = snap.Messages

	if n := len(snap.Messages); n > 0 {
		last := snap.Messages[n-1]
		c.conversation.LastMessageText = last.Text
		c.conversation.LastMessageAt = last.SentAt
		c.conversation.LastSenderID = last.SenderID
	}

	kept := c.pending[:0]
	for _, p := range c.pending {
		if !supersedes(snap.Messages, p) {
			kept = append(kept, p)
		}
	}
	c.pending = kept

	view, notify := c.viewLocked()
	c.mu.Unlock()
	notify(view)
}

func (c *Controller) dropPendingLocked(token string) {
	kept := c.pending[:0]
	for _, p := range c.pending {
		if p.ClientToken != token {
			kept = append(kept, p)
		}
	}
	c.pending = kept
}

// viewLocked builds the rendered list and returns it with the registered
// callback, so callers can invoke the callback after releasing the mutex.
func (c *Controller) viewLocked() ([]models.Message, func([]models.Message)) {
	out := make([]models.Message, 0, len(c.rendered)+len(c.pending))
	out = append(out, c.rendered...)
	out = append(out, c.pending...)
	if c.onChange == nil {
		return out, func([]models.Message) {}
	}
	return out, c.onChange
}

// supersedes reports whether the authoritative list already carries the
// optimistic entry. The client token match is exact; the sender/text/time
// heuristic only covers messages written without a token.
func supersedes(msgs []models.Message, p models.Message) bool {
	for _, m := range msgs {
		if p.ClientToken != "" && m.ClientToken == p.ClientToken {
			return true
		}
		if m.ClientToken == "" && m.SenderID == p.SenderID && m.Text == p.Text {
			d := m.SentAt.Sub(p.SentAt)
			if d < 0 {
				d = -d
			}
			if d <= reconcileWindow {
				return true
			}
		}
	}
	return false
}
