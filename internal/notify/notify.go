// Package notify posts deployment completion events to an optional webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hakim/examkit/internal/models"
)

// Webhook configures where to send completion notifications
type Webhook struct {
	URL    string // if empty, no notifications
	Client *http.Client
}

// completionPayload is the JSON body posted to the webhook endpoint
type completionPayload struct {
	DeploymentID   string            `json:"deployment_id"`
	Kind           string            `json:"kind"`
	Status         string            `json:"status"`
	Root           string            `json:"root"`
	Targets        []string          `json:"targets"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
	Errors         map[string]string `json:"errors"`
}

// SendCompletion posts a summary of d. Returns nil if no URL is set. Errors are
// returned but callers should treat them as warnings.
func (n *Webhook) SendCompletion(d *models.Deployment) error {
	if n == nil || n.URL == "" {
		return nil
	}

	payload := completionPayload{
		DeploymentID: d.ID,
		Kind:         string(d.Kind),
		Status:       string(d.Status),
		Root:         d.Root,
		Targets:      make([]string, len(d.Targets)),
		Errors:       d.Errors,
	}
	for i, t := range d.Targets {
		payload.Targets[i] = t.FQDN()
	}
	if d.CompletedAt != nil {
		payload.ElapsedSeconds = d.CompletedAt.Sub(d.StartedAt).Seconds()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Post(n.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}

	return nil
}
