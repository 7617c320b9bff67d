package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	colorSuccess = 0x22c55e
	colorError   = 0xef4444

	webhookUsername = "Crosspost Bot"
	webhookFooter   = "Crosspost - publication automatique"
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	URL         string       `json:"url,omitempty"`
	Timestamp   string       `json:"timestamp"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      embedFooter  `json:"footer"`
}

type webhookPayload struct {
	Username string  `json:"username"`
	Embeds   []embed `json:"embeds"`
}

// WebhookSink posts Discord-style embeds to a webhook URL
type WebhookSink struct {
	url    string
	client *http.Client
}

func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WebhookSink) Notify(ctx context.Context, ev Event) error {
	var e embed
	switch ev.Outcome {
	case OutcomePublished:
		e = embed{
			Title:       "✅ Annonce publiée",
			Description: "L'annonce a été postée automatiquement.",
			Color:       colorSuccess,
			URL:         ev.URL,
			Fields: []embedField{
				{Name: "Article", Value: ev.Title},
				{Name: "Plateforme", Value: ev.Platform.String(), Inline: true},
			},
		}
		if ev.URL != "" {
			e.Fields = append(e.Fields, embedField{
				Name: "Lien", Value: fmt.Sprintf("[Voir l'annonce](%s)", ev.URL), Inline: true,
			})
		}
	default:
		detail := ev.Detail
		if len(detail) > 500 {
			detail = detail[:500] + "..."
		}
		e = embed{
			Title:       "❌ Échec du postage",
			Description: "La publication a échoué définitivement.",
			Color:       colorError,
			Fields: []embedField{
				{Name: "Article", Value: ev.Title},
				{Name: "Plateforme", Value: ev.Platform.String(), Inline: true},
				{Name: "Erreur", Value: "```" + detail + "```"},
			},
		}
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	e.Footer = embedFooter{Text: webhookFooter}

	body, err := json.Marshal(webhookPayload{Username: webhookUsername, Embeds: []embed{e}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Discord answers 204 No Content on success
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
