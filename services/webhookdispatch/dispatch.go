package webhookdispatch

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"puretrack/logger"
	webhookModel "puretrack/models/webhook"
	"puretrack/types"

	"gorm.io/gorm"
)

// Delivery is the JSON body posted to subscribers.
type Delivery struct {
	Event             string      `json:"event"`
	ShipmentReference string      `json:"shipment_reference,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
	Data              interface{} `json:"data,omitempty"`
}

// Dispatcher posts event notifications to registered webhook subscriptions.
type Dispatcher struct {
	DB       *gorm.DB
	Logger   *logger.AsyncLogger
	Client   *http.Client
}

func NewDispatcher(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Dispatcher {
	return &Dispatcher{
		DB:     db,
		Logger: asyncLogger,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// DispatchAsync fans the delivery out to matching subscriptions without
// blocking the caller. Best-effort: failures bump failure_count and are
// recorded in the API log, nothing is retried here.
func (d *Dispatcher) DispatchAsync(delivery Delivery) {
	go d.dispatch(delivery)
}

func (d *Dispatcher) dispatch(delivery Delivery) {
	var subs []webhookModel.Subscription
	if err := d.DB.Where("is_active = ?", true).Find(&subs).Error; err != nil {
		logger.Error("Failed to load webhook subscriptions", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		if !sub.WantsEvent(delivery.Event) {
			continue
		}
		d.deliverOne(sub, delivery)
	}
}

func (d *Dispatcher) deliverOne(sub *webhookModel.Subscription, delivery Delivery) {
	body, err := json.Marshal(delivery)
	if err != nil {
		logger.Error("Failed to encode webhook delivery", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build webhook request", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", delivery.Event)
	if sub.Secret != nil && *sub.Secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(body, *sub.Secret))
	}

	start := time.Now()
	resp, err := d.Client.Do(req)
	entry := types.ApiCallEntry{
		Provider:       "WEBHOOK",
		Endpoint:       sub.URL,
		Method:         http.MethodPost,
		RequestPayload: string(body),
		DurationMs:     time.Since(start).Milliseconds(),
		CreatedAt:      time.Now(),
	}

	now := time.Now()
	if err != nil {
		entry.ErrorMessage = err.Error()
		d.Logger.Log(entry)
		d.recordOutcome(sub, now, false)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 5000))
	entry.StatusCode = resp.StatusCode
	entry.ResponseBody = string(respBody)
	d.Logger.Log(entry)

	d.recordOutcome(sub, now, resp.StatusCode >= 200 && resp.StatusCode < 300)
}

func (d *Dispatcher) recordOutcome(sub *webhookModel.Subscription, at time.Time, ok bool) {
	updates := map[string]interface{}{"last_triggered_at": at}
	if !ok {
		updates["failure_count"] = gorm.Expr("failure_count + 1")
	}
	if err := d.DB.Model(sub).Updates(updates).Error; err != nil {
		logger.Error("Failed to record webhook outcome", err)
	}
}

// Sign returns the hex HMAC-SHA256 of the body under the subscription secret.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
