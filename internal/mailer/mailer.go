package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const apiEndpoint = "https://api.smtp2go.com/v3/email/send"

type Mailer struct {
	apiKey string
	sender string
	client *http.Client
}

// SMTP2GO API request structure
type SMTP2GORequest struct {
	APIKey   string   `json:"api_key"`
	To       []string `json:"to"`
	Sender   string   `json:"sender"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
}

// SMTP2GO API response structure
type SMTP2GOResponse struct {
	RequestID string `json:"request_id"`
	Data      struct {
		EmailID string `json:"email_id"`
	} `json:"data"`
}

func New(apiKey, sender string) Mailer {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	return Mailer{
		apiKey: apiKey,
		sender: sender,
		client: client,
	}
}

// Send delivers a plain-text mail via the SMTP2GO API, retrying twice
func (m Mailer) Send(recipient, subject, textBody string) error {
	request := SMTP2GORequest{
		APIKey:   m.apiKey,
		To:       []string{recipient},
		Sender:   m.sender,
		Subject:  subject,
		TextBody: textBody,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	for i := 1; i <= 3; i++ {
		err = m.sendViaAPI(jsonData)
		if err == nil {
			return nil
		}

		// Wait before retry
		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("failed to send email after 3 attempts: %w", err)
}

func (m Mailer) sendViaAPI(jsonData []byte) error {
	req, err := http.NewRequest("POST", apiEndpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	// Parse response
	var response SMTP2GOResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
