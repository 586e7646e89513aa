package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/causalmap-backend/internal/platform/logger"
)

// AuditAlertMetric is one degraded audit metric included in a webhook
// alert payload.
type AuditAlertMetric struct {
	Name      string         `json:"name"`
	Status    string         `json:"status"`
	Value     float64        `json:"value"`
	Threshold float64        `json:"threshold"`
	Meta      map[string]any `json:"meta,omitempty"`
}

type auditAlertState struct {
	mu   sync.Mutex
	last map[string]time.Time
}

var auditAlerts auditAlertState

// ReportAuditDegradation posts a webhook alert when audit health metrics
// cross their thresholds. Alerts are rate limited per process with a
// min-interval cooldown; delivery is best effort.
func ReportAuditDegradation(ctx context.Context, log *logger.Logger, metrics []AuditAlertMetric, meta map[string]any) {
	if len(metrics) == 0 {
		return
	}
	if !auditAlertsEnabled() {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}

	webhook := auditAlertWebhook()
	if webhook == "" {
		return
	}
	key := "audit_degradation"
	auditAlerts.mu.Lock()
	if auditAlerts.last == nil {
		auditAlerts.last = map[string]time.Time{}
	}
	last := auditAlerts.last[key]
	minInterval := auditAlertMinInterval()
	if !last.IsZero() && time.Since(last) < minInterval {
		auditAlerts.mu.Unlock()
		return
	}
	auditAlerts.last[key] = time.Now()
	auditAlerts.mu.Unlock()

	payload := map[string]any{
		"title":     "Graph audit degradation detected",
		"metrics":   metrics,
		"meta":      meta,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook, bytes.NewReader(body))
	if err != nil {
		if log != nil {
			log.Warn("audit alert request build failed", "error", err)
		}
		return
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Warn("audit alert post failed", "error", err)
		}
		return
	}
	_ = resp.Body.Close()
	if log != nil {
		log.Info("audit alert sent", "status", resp.StatusCode)
	}
}

func auditAlertsEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("AUDIT_ALERTS_ENABLED")))
	if v == "" {
		return false
	}
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func auditAlertWebhook() string {
	return strings.TrimSpace(os.Getenv("AUDIT_ALERT_WEBHOOK_URL"))
}

func auditAlertMinInterval() time.Duration {
	raw := strings.TrimSpace(os.Getenv("AUDIT_ALERT_MIN_INTERVAL_SECONDS"))
	if raw == "" {
		return 10 * time.Minute
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(seconds) * time.Second
}
