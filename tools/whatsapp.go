package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"botique/engine"
	"botique/models"
)

// WhatsAppAPIError carries a non-2xx Graph API response.
type WhatsAppAPIError struct {
	StatusCode int
	Body       string
}

func (e WhatsAppAPIError) Error() string {
	return fmt.Sprintf("whatsapp api error: status=%d body=%s", e.StatusCode, e.Body)
}

// WhatsAppSender sends messages through the WhatsApp Cloud API using each
// tenant's own credentials. It implements engine.Sender.
type WhatsAppSender struct {
	Timeout time.Duration
}

func NewWhatsAppSender(timeout time.Duration) *WhatsAppSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhatsAppSender{Timeout: timeout}
}

func (s *WhatsAppSender) SendText(ctx context.Context, tenant *models.Tenant, to string, text string) (string, error) {
	return s.post(ctx, tenant, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"body": text,
		},
	})
}

func (s *WhatsAppSender) SendImage(ctx context.Context, tenant *models.Tenant, to string, url string, caption string) (string, error) {
	image := map[string]any{"link": url}
	if caption != "" {
		image["caption"] = caption
	}
	return s.post(ctx, tenant, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "image",
		"image":             image,
	})
}

func (s *WhatsAppSender) SendDocument(ctx context.Context, tenant *models.Tenant, to string, url string, caption string) (string, error) {
	doc := map[string]any{"link": url}
	if caption != "" {
		doc["caption"] = caption
	}
	return s.post(ctx, tenant, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "document",
		"document":          doc,
	})
}

func (s *WhatsAppSender) SendInteractive(ctx context.Context, tenant *models.Tenant, to string, body string, rows []engine.InteractiveRow) (string, error) {
	listRows := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		row := map[string]any{
			"id":    r.ID,
			"title": truncate(r.Title, 24),
		}
		if r.Description != "" {
			row["description"] = truncate(r.Description, 72)
		}
		listRows = append(listRows, row)
	}

	return s.post(ctx, tenant, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type": "list",
			"body": map[string]any{"text": body},
			"action": map[string]any{
				"button": "View options",
				"sections": []map[string]any{
					{"rows": listRows},
				},
			},
		},
	})
}

// post sends one /messages call with the tenant's credentials and returns
// the external message id (wamid).
func (s *WhatsAppSender) post(ctx context.Context, tenant *models.Tenant, payload map[string]any) (string, error) {
	token := strings.TrimSpace(tenant.AccessToken)
	phoneID := strings.TrimSpace(tenant.PhoneNumberID)
	if token == "" || phoneID == "" {
		return "", fmt.Errorf("tenant %d has no whatsapp credentials", tenant.ID)
	}

	apiVersion := strings.TrimSpace(tenant.ApiVersion)
	if apiVersion == "" {
		apiVersion = "v24.0"
	}
	url := fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", apiVersion, phoneID)

	b, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: s.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", WhatsAppAPIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Messages) == 0 {
		return "", nil
	}
	return parsed.Messages[0].ID, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
