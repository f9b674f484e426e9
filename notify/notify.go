// Package notify triggers the external automation webhooks (fleet
// notification and the AI driver selector). Both are fire-and-wait calls
// whose effects show up later in the record store.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cargas/db/db"
	"cargas/libs/logging"
)

// Trigger is what the synchronizer needs from the webhooks.
type Trigger interface {
	NotifyFleet(ctx context.Context, loads []FleetNotice) error
	RunAISelector(ctx context.Context, date string) error
}

// FleetNotice is one assigned load announced to its driver.
type FleetNotice struct {
	LoadID          string `json:"id"`
	ProtocolCode    string `json:"protocolo"`
	DriverName      string `json:"motorista"`
	DriverPhone     string `json:"telefone"`
	TruckPlate      string `json:"cavalo"`
	TrailerPlate    string `json:"carreta"`
	OriginName      string `json:"origem"`
	DestinationName string `json:"destino"`
	PickupDate      string `json:"dataColeta"`
	ScheduledTime   string `json:"horario"`
	Product         string `json:"produto"`
}

func NewFleetNotice(l db.Load) FleetNotice {
	return FleetNotice{
		LoadID:          l.ID,
		ProtocolCode:    l.ProtocolCode,
		DriverName:      l.DriverName,
		DriverPhone:     l.DriverPhone,
		TruckPlate:      l.TruckPlate,
		TrailerPlate:    l.TrailerPlate,
		OriginName:      l.OriginName,
		DestinationName: l.DestinationName,
		PickupDate:      l.PickupDate,
		ScheduledTime:   l.ScheduledTime,
		Product:         string(l.Product),
	}
}

type WebhookClient struct {
	notifyURL string
	aiURL     string
	client    *http.Client
	logger    *zap.Logger
}

// NewWebhookClient accepts empty URLs; calling an unconfigured trigger
// returns an error.
func NewWebhookClient(notifyURL, aiURL string, client *http.Client, logger *zap.Logger) *WebhookClient {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &WebhookClient{notifyURL: notifyURL, aiURL: aiURL, client: client, logger: logging.OrNop(logger)}
}

func (c *WebhookClient) NotifyFleet(ctx context.Context, loads []FleetNotice) error {
	if c.notifyURL == "" {
		return fmt.Errorf("notify fleet webhook is not configured")
	}
	return c.post(ctx, "notify fleet", c.notifyURL, map[string]interface{}{"cargas": loads})
}

func (c *WebhookClient) RunAISelector(ctx context.Context, date string) error {
	if c.aiURL == "" {
		return fmt.Errorf("AI selector webhook is not configured")
	}
	return c.post(ctx, "AI selector", c.aiURL, map[string]interface{}{"data": date})
}

func (c *WebhookClient) post(ctx context.Context, op, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &db.TransportError{Op: "POST " + op + " webhook", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	if resp.StatusCode/100 != 2 {
		return &db.TransportError{
			Op:  "POST " + op + " webhook",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody),
		}
	}
	c.logger.Info("webhook triggered", zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))
	return nil
}
