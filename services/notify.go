package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/peerawits/reqbridge/utils"
)

const notifyPath = "api/line/notify"

// Notifier posts best-effort notifications to the LINE relay. Failures are
// logged and swallowed; they never reach the caller's result. A nil Notifier
// or an empty base URL disables delivery.
type Notifier struct {
	baseURL    string
	httpClient *http.Client
	logger     *utils.Logger
}

func NewNotifier(baseURL string) *Notifier {
	return &Notifier{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     utils.NewLogger("notify"),
	}
}

func (n *Notifier) Notify(ctx context.Context, link, message, target string) {
	if n == nil || n.baseURL == "" {
		return
	}

	body, err := json.Marshal(map[string]string{
		"link":    link,
		"message": message,
		"target":  target,
	})
	if err != nil {
		n.logger.Warn(ctx, "failed to encode notification", map[string]interface{}{"error": err.Error()})
		return
	}

	url := strings.TrimSuffix(n.baseURL, "/") + "/" + notifyPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn(ctx, "failed to build notification request", map[string]interface{}{"error": err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn(ctx, "notification delivery failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		n.logger.Warn(ctx, "notification rejected", map[string]interface{}{"status": resp.StatusCode})
	}
}
