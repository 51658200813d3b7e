package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/Vedantlights/indiapropertys-sub000/models"
	"github.com/Vedantlights/indiapropertys-sub000/storage"
	"github.com/Vedantlights/indiapropertys-sub000/utils"
)

// NotificationService handles all push notification logic
type NotificationService struct{}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotificationData represents the data payload for notifications
type NotificationData struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	PropertyID string `json:"propertyId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	// Deep linking data
	Screen string `json:"screen"`           // Target screen to navigate to
	Params string `json:"params"`           // JSON string of navigation parameters
	Action string `json:"action,omitempty"` // Specific action to perform
}

// getUserPushTokens retrieves all push tokens for a user
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}

	return tokens, nil
}

// SendNotificationToUser sends a notification to a specific user
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data NotificationData) error {
	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		log.Printf("Failed to get push tokens for user %d: %v", userID, err)
		return err
	}

	dataMap := map[string]string{
		"type":       data.Type,
		"id":         data.ID,
		"propertyId": data.PropertyID,
		"userId":     data.UserID,
		"screen":     data.Screen,
		"params":     data.Params,
		"action":     data.Action,
	}

	var lastError error
	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, dataMap); err != nil {
			log.Printf("Failed to send notification to token %s: %v", token, err)
			lastError = err
		}
	}

	return lastError
}

// SendInquiryNotificationToSeller sends notification when a buyer inquires about a property
func (ns *NotificationService) SendInquiryNotificationToSeller(sellerID, inquiryID, propertyID uint, buyerName, propertyTitle string) error {
	title := "🏠 New Inquiry"
	body := fmt.Sprintf("%s is asking about %s", buyerName, propertyTitle)

	params := fmt.Sprintf(`{"inquiryId": %d, "propertyId": %d}`, inquiryID, propertyID)

	data := NotificationData{
		Type:       "inquiry_created",
		ID:         fmt.Sprintf("%d", inquiryID),
		PropertyID: fmt.Sprintf("%d", propertyID),
		Screen:     "Inquiries",
		Params:     params,
		Action:     "view_inquiry",
	}

	err := ns.SendNotificationToUser(sellerID, title, body, data)
	if err != nil {
		log.Printf("❌ NOTIFICATION ERROR: Failed to send inquiry notification: %v", err)
	}
	return err
}

// SendMessageNotification sends notification when a chat message is received
func (ns *NotificationService) SendMessageNotification(recipientID, senderID uint, senderName, propertyTitle string) error {
	title := "💬 New Message"
	body := fmt.Sprintf("%s sent you a message about %s", senderName, propertyTitle)

	params := fmt.Sprintf(`{"senderId": %d, "senderName": "%s"}`, senderID, senderName)

	data := NotificationData{
		Type:   "message_received",
		UserID: fmt.Sprintf("%d", senderID),
		Screen: "Messages",
		Params: params,
		Action: "view_conversation",
	}

	return ns.SendNotificationToUser(recipientID, title, body, data)
}
