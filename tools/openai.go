package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"botique/engine"
	"botique/models"
)

const defaultSystemPrompt = "You are a helpful, polite assistant answering WhatsApp messages for a business. " +
	"Keep replies short. If the customer asks for something you cannot resolve, " +
	"append the token " + engine.HandoffSentinel + " to your reply."

// OpenAIResponder answers messages no other stage handled, using the
// OpenAI Responses API. It implements engine.AIResponder.
type OpenAIResponder struct {
	Model   string
	Timeout time.Duration
}

func NewOpenAIResponder() *OpenAIResponder {
	return &OpenAIResponder{
		Model:   getenv("OPENAI_MODEL", "gpt-4.1-mini"),
		Timeout: 30 * time.Second,
	}
}

func (o *OpenAIResponder) Generate(ctx context.Context, tenant *models.Tenant, customer *models.Customer, history []models.Message, userText string) (engine.AIReply, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return engine.AIReply{}, fmt.Errorf("OPENAI_API_KEY not set")
	}

	systemPrompt := strings.TrimSpace(tenant.AISystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	systemPrompt += "\nBusiness: " + tenant.Name + " (" + string(tenant.BusinessType) + ")."
	if customer.Name != "" {
		systemPrompt += " Customer name: " + customer.Name + "."
	}

	reqBody := map[string]any{
		"model":        o.Model,
		"instructions": systemPrompt,
		"input":        buildInput(history, userText),
	}
	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		"https://api.openai.com/v1/responses",
		bytes.NewReader(b),
	)
	if err != nil {
		return engine.AIReply{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: o.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return engine.AIReply{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return engine.AIReply{}, fmt.Errorf("openai error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Output []struct {
			Type    string `json:"type"`
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return engine.AIReply{}, err
	}

	var sb strings.Builder
	for _, item := range parsed.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && strings.TrimSpace(c.Text) != "" {
					if sb.Len() > 0 {
						sb.WriteString("\n")
					}
					sb.WriteString(c.Text)
				}
			}
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return engine.AIReply{}, fmt.Errorf("empty response from model")
	}

	reply := engine.AIReply{Text: out}
	if strings.Contains(out, engine.HandoffSentinel) {
		reply.RequestsHandoff = true
	}
	return reply, nil
}

// buildInput renders the recent conversation as a plain transcript ending
// with the current message.
func buildInput(history []models.Message, userText string) string {
	var b strings.Builder
	for _, msg := range history {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		role := "Customer"
		if msg.Role == models.MESSAGE_ROLE_ASSISTANT {
			role = "Assistant"
		}
		b.WriteString(role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	b.WriteString("Customer: ")
	b.WriteString(userText)
	return b.String()
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
