package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/flowpulse/flowpulse/agent/internal/config"
)

// chartRef identifies the chart an alert was raised on.
type chartRef struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// httpPayload is the body posted to generic "http" webhooks.
type httpPayload struct {
	Event string   `json:"event"` // "firing" | "resolved"
	Chart chartRef `json:"chart"`
	Alert *Alert   `json:"alert"`
	// SentAt is when the delivery was attempted, not when the alert changed.
	SentAt time.Time `json:"sent_at"`
}

// teamsFact is one name/value row of a MessageCard section.
type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// deliver sends a to every target in hooks. Delivery errors are logged.
func (e *Engine) deliver(hooks []config.WebhookConfig, a *Alert) {
	for _, wh := range hooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		body, err := e.encode(wh.Type, a)
		if err != nil {
			slog.Warn("alerts: skipping webhook", "type", wh.Type, "err", err)
			continue
		}
		if err := e.post(url, body); err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"chart", a.ChartID,
				"err", err,
			)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "chart", a.ChartID, "state", a.State)
	}
}

// encode renders a in the payload shape expected by the webhook kind.
func (e *Engine) encode(kind string, a *Alert) ([]byte, error) {
	switch kind {
	case "slack":
		return json.Marshal(map[string]string{"text": slackText(a)})
	case "teams":
		return json.Marshal(teamsCard(a))
	case "http":
		return json.Marshal(httpPayload{
			Event:  a.State,
			Chart:  chartRef{ID: a.ChartID, Status: a.ChartStatus},
			Alert:  a,
			SentAt: e.now().UTC(),
		})
	default:
		return nil, fmt.Errorf("unknown webhook type %q", kind)
	}
}

func slackText(a *Alert) string {
	if a.State == StateResolved {
		return fmt.Sprintf("*%s* `%s` on chart `%s` is back within limits", stateLabel(a), a.RuleName, a.ChartID)
	}
	return fmt.Sprintf("*%s* `%s` on chart `%s` (%s): %s", stateLabel(a), a.RuleName, a.ChartID, a.ChartStatus, a.Message)
}

func teamsCard(a *Alert) map[string]any {
	facts := []teamsFact{
		{Name: "Chart", Value: a.ChartID},
		{Name: "Chart status", Value: a.ChartStatus},
		{Name: "Severity", Value: a.Severity},
		{Name: "Value", Value: strconv.FormatFloat(a.Value, 'f', 2, 64)},
		{Name: "Fired", Value: a.FiredAt.UTC().Format(time.RFC3339)},
	}
	if a.ResolvedAt != nil {
		facts = append(facts, teamsFact{Name: "Resolved", Value: a.ResolvedAt.UTC().Format(time.RFC3339)})
	}
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": stateColor(a),
		"summary":    fmt.Sprintf("%s %s on %s", a.RuleName, a.State, a.ChartID),
		"title":      fmt.Sprintf("flowpulse %s: %s", a.State, a.RuleName),
		"sections": []map[string]any{
			{"activityTitle": a.Message, "facts": facts},
		},
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func stateColor(a *Alert) string {
	if a.State == StateResolved {
		return "2EB67D"
	}
	switch a.Severity {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
