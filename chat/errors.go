package chat

import "errors"

var (
	// ErrInvalidIdentity means a participant or property id was missing;
	// the caller has to fix its input, retrying won't help.
	ErrInvalidIdentity = errors.New("chat: invalid participant or property id")

	// ErrEmptyMessage means the message text was empty after trimming.
	// The caller should re-prompt without dropping the draft.
	ErrEmptyMessage = errors.New("chat: message text is empty")

	// ErrStoreUnavailable wraps failures reaching the backing store.
	// Surfaced to the sender as retryable.
	ErrStoreUnavailable = errors.New("chat: message store unavailable")

	// ErrConversationNotFound means no conversation exists for the key yet.
	ErrConversationNotFound = errors.New("chat: conversation not found")
)
