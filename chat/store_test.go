package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.User{},
		&models.Property{},
		&models.Inquiry{},
	))
	return db
}

// snapshotRecorder collects deliveries for assertions.
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *snapshotRecorder) record(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *snapshotRecorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.snaps))
	copy(out, r.snaps)
	return out
}

func seedConversation(t *testing.T, db *gorm.DB) models.Conversation {
	t.Helper()
	directory := NewDirectory(db)
	conv, err := directory.CreateOrGet(context.Background(), 10, 20, RoleSeller, 77)
	require.NoError(t, err)
	return conv
}

func TestAppendRejectsEmptyText(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := store.Append(context.Background(), AppendInput{
			ConversationKey: conv.Key,
			SenderID:        10,
			SenderRole:      RoleBuyer,
			Text:            text,
		})
		require.ErrorIs(t, err, ErrEmptyMessage)
	}
}

func TestAppendOrdersByTimeAndUpdatesPreview(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i, text := range []string{"first", "second", "third"} {
		sender := uint(10)
		role := RoleBuyer
		if i%2 == 1 {
			sender = 20
			role = RoleSeller
		}
		_, err := store.Append(ctx, AppendInput{
			ConversationKey: conv.Key,
			SenderID:        sender,
			SenderRole:      role,
			Text:            text,
		})
		require.NoError(t, err)
	}

	msgs, err := store.Messages(ctx, conv.Key)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, "second", msgs[1].Text)
	require.Equal(t, "third", msgs[2].Text)
	for i := 1; i < len(msgs); i++ {
		require.False(t, msgs[i].SentAt.Before(msgs[i-1].SentAt))
	}

	directory := NewDirectory(db)
	updated, err := directory.Details(ctx, conv.Key)
	require.NoError(t, err)
	require.Equal(t, "third", updated.LastMessageText)
	require.Equal(t, uint(10), updated.LastSenderID)
	require.Equal(t, msgs[2].SentAt.Unix(), updated.LastMessageAt.Unix())
}

func TestAppendBreaksTimestampTiesByWriteOrder(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)
	ctx := context.Background()

	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return frozen }

	for _, text := range []string{"a", "b", "c"} {
		_, err := store.Append(ctx, AppendInput{
			ConversationKey: conv.Key,
			SenderID:        10,
			SenderRole:      RoleBuyer,
			Text:            text,
		})
		require.NoError(t, err)
	}

	msgs, err := store.Messages(ctx, conv.Key)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "a", msgs[0].Text)
	require.Equal(t, "b", msgs[1].Text)
	require.Equal(t, "c", msgs[2].Text)
	require.Less(t, msgs[0].Seq, msgs[1].Seq)
	require.Less(t, msgs[1].Seq, msgs[2].Seq)
}

func TestSubscribeDeliversFullSnapshots(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)
	ctx := context.Background()

	recorder := &snapshotRecorder{}
	sub, err := store.Subscribe(ctx, conv.Key, recorder.record)
	require.NoError(t, err)
	defer sub.Stop()

	// registration delivers the current (empty) state
	initial := recorder.all()
	require.Len(t, initial, 1)
	require.Empty(t, initial[0].Messages)

	_, err = store.Append(ctx, AppendInput{ConversationKey: conv.Key, SenderID: 10, SenderRole: RoleBuyer, Text: "hello"})
	require.NoError(t, err)
	_, err = store.Append(ctx, AppendInput{ConversationKey: conv.Key, SenderID: 20, SenderRole: RoleSeller, Text: "hi"})
	require.NoError(t, err)

	snaps := recorder.all()
	require.Len(t, snaps, 3)
	last := snaps[len(snaps)-1]
	require.Len(t, last.Messages, 2)
	require.Equal(t, "hello", last.Messages[0].Text)
	require.Equal(t, "hi", last.Messages[1].Text)
	require.Greater(t, last.Version, snaps[1].Version)
}

func TestStopEndsDeliverySynchronously(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)
	ctx := context.Background()

	recorder := &snapshotRecorder{}
	sub, err := store.Subscribe(ctx, conv.Key, recorder.record)
	require.NoError(t, err)

	sub.Stop()
	sub.Stop() // idempotent
	before := len(recorder.all())

	_, err = store.Append(ctx, AppendInput{ConversationKey: conv.Key, SenderID: 10, SenderRole: RoleBuyer, Text: "after stop"})
	require.NoError(t, err)
	require.Len(t, recorder.all(), before, "no delivery after Stop returns")
}

func TestStaleSnapshotsAreDiscarded(t *testing.T) {
	recorder := &snapshotRecorder{}
	sub := &Subscription{onSnapshot: recorder.record}

	sub.push(Snapshot{Version: 2})
	sub.push(Snapshot{Version: 1}) // late reload overtaken by a newer one
	sub.push(Snapshot{Version: 2}) // duplicate
	sub.push(Snapshot{Version: 3})

	snaps := recorder.all()
	require.Len(t, snaps, 2)
	require.Equal(t, uint64(2), snaps[0].Version)
	require.Equal(t, uint64(3), snaps[1].Version)
}

func TestSameVersionSnapshotWithLateMessageIsDelivered(t *testing.T) {
	recorder := &snapshotRecorder{}
	sub := &Subscription{onSnapshot: recorder.record}

	late := models.Message{ID: "m-late", Seq: 6, Text: "committed late"}
	newest := models.Message{ID: "m-new", Seq: 7, Text: "committed first"}

	// The reload for the slow-committing earlier message carries the same
	// max Seq but one more row; it must not be treated as a duplicate.
	sub.push(Snapshot{Messages: []models.Message{newest}, Version: 7})
	sub.push(Snapshot{Messages: []models.Message{late, newest}, Version: 7})

	snaps := recorder.all()
	require.Len(t, snaps, 2)
	require.Len(t, snaps[1].Messages, 2)
	require.Equal(t, "m-late", snaps[1].Messages[0].ID)

	// an actual duplicate of the grown state still gets dropped
	sub.push(Snapshot{Messages: []models.Message{late, newest}, Version: 7})
	require.Len(t, recorder.all(), 2)
}

func TestConcurrentAppendsAssignDistinctSeqs(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)
	ctx := context.Background()

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := uint(10)
			role := RoleBuyer
			if i%2 == 1 {
				sender = 20
				role = RoleSeller
			}
			_, err := store.Append(ctx, AppendInput{
				ConversationKey: conv.Key,
				SenderID:        sender,
				SenderRole:      role,
				Text:            fmt.Sprintf("message %d", i),
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := store.Messages(ctx, conv.Key)
	require.NoError(t, err)
	require.Len(t, msgs, senders)
	seen := make(map[uint64]bool, senders)
	for _, m := range msgs {
		require.False(t, seen[m.Seq], "seq %d assigned twice", m.Seq)
		seen[m.Seq] = true
		require.GreaterOrEqual(t, m.Seq, uint64(1))
		require.LessOrEqual(t, m.Seq, uint64(senders))
	}
}

func TestAppendFailureIsRetryable(t *testing.T) {
	db := newTestDB(t)
	store := NewMessageStore(db, NewLocalNotifier())
	conv := seedConversation(t, db)

	require.NoError(t, db.Migrator().DropTable(&models.Message{}))

	_, err := store.Append(context.Background(), AppendInput{
		ConversationKey: conv.Key,
		SenderID:        10,
		SenderRole:      RoleBuyer,
		Text:            "will not land",
	})
	require.ErrorIs(t, err, ErrStoreUnavailable)
}
