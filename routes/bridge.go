package routes

import (
	"context"

	"github.com/Vedantlights/indiapropertys-sub000/chat"
	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
)

var (
	messageStore    *chat.MessageStore
	conversationDir *chat.Directory
	statusMachine   *chat.StatusMachine
)

// InitChatBridge wires the chat bridge against the shared DB handle. Call
// after storage.InitializeDB. A nil notifier falls back to in-process
// fan-out (tests, single-instance deployments without Redis).
func InitChatBridge(notifier chat.ChangeNotifier) {
	if notifier == nil {
		notifier = chat.NewLocalNotifier()
	}
	messageStore = chat.NewMessageStore(storage.DB, notifier)
	conversationDir = chat.NewDirectory(storage.DB)
	statusMachine = chat.NewStatusMachine(inquiryStatusUpdater{})
}

// inquiryStatusUpdater is the gorm-backed chat.StatusUpdater over the
// inquiries table.
type inquiryStatusUpdater struct{}

func (inquiryStatusUpdater) UpdateStatus(ctx context.Context, inquiryID uint, status string) error {
	// the IN guard keeps the row monotonic even when another session
	// advanced it since this one loaded the inquiry
	return storage.DB.WithContext(ctx).
		Model(&models.Inquiry{}).
		Where("id = ? AND status IN ?", inquiryID, chat.StatusesBelow(status)).
		Update("status", status).Error
}

func newBridgeController(claims *utils.AccessToken, inquiry models.Inquiry) *chat.Controller {
	session := chat.Session{UserID: claims.ID, Role: claims.Role}
	return chat.NewController(session, inquiry, messageStore, conversationDir, statusMachine)
}
