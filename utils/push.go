package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const expoPushURL = "https://exp.host/--/api/v2/push/send"

var pushClient = &http.Client{Timeout: 10 * time.Second}

// SendNotification delivers one push message to an Expo push token.
func SendNotification(token, title, body string, data map[string]string) error {
	payload := map[string]interface{}{
		"to":    token,
		"title": title,
		"body":  body,
		"sound": "default",
		"data":  data,
	}

	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := pushClient.Post(expoPushURL, "application/json", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push send failed: %s", resp.Status)
	}
	return nil
}
