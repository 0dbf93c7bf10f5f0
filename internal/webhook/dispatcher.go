package webhook

import (
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// Timeouts mirror the upstream contract: 10s to connect, 30s for the
// whole exchange.
const (
	connectTimeout  = 10 * time.Second
	requestTimeout  = 30 * time.Second
	maxLoggedBody   = 500
	maxResponseRead = 64 * 1024
)

// DeliveryRecorder persists a best-effort audit row per attempt.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, d Delivery)
}

// Delivery is the outcome of one webhook POST.
type Delivery struct {
	Event        string
	Action       string
	URL          string
	Body         []byte
	Signature    string
	StatusCode   int
	ResponseBody string
	Err          string
}

// NopRecorder discards delivery records.
type NopRecorder struct{}

func (NopRecorder) RecordDelivery(ctx context.Context, d Delivery) {}

// Dispatcher performs the outbound POST. Delivery is fire-and-forget:
// every failure is logged and swallowed, nothing propagates to the
// caller, and there are no retries.
type Dispatcher struct {
	client   *http.Client
	recorder DeliveryRecorder
}

func NewDispatcher(recorder DeliveryRecorder) *Dispatcher {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Dispatcher{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
				TLSHandshakeTimeout: connectTimeout,
			},
		},
		recorder: recorder,
	}
}

// Deliver POSTs the signed payload to url. HTTPS is used automatically
// when the URL scheme is https. Never returns an error.
func (d *Dispatcher) Deliver(ctx context.Context, url string, payload *SignedPayload) {
	record := Delivery{
		Event:     payload.Event,
		Action:    payload.Action,
		URL:       url,
		Body:      payload.Body,
		Signature: payload.Signature,
	}
	defer func() { d.recorder.RecordDelivery(ctx, record) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload.Body))
	if err != nil {
		record.Err = err.Error()
		log.Printf("[Webhook] ERROR: build request for %s: %v", url, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", payload.Signature)
	req.Header.Set("X-Webhook-Event", payload.Event)
	req.Header.Set("X-Webhook-Action", payload.Action)

	resp, err := d.client.Do(req)
	if err != nil {
		record.Err = err.Error()
		log.Printf("[Webhook] ERROR: failed to send %s to %s: %v", payload.Action, url, err)
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseRead))
	record.StatusCode = resp.StatusCode
	record.ResponseBody = truncate(string(respBody), maxLoggedBody)

	log.Printf("[Webhook] Sent %s to %s, status: %d", payload.Action, url, resp.StatusCode)
	if resp.StatusCode >= 400 {
		log.Printf("[Webhook] WARN: response body: %s", record.ResponseBody)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
