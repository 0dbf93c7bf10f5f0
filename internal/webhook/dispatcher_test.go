package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type captureRecorder struct {
	mu         sync.Mutex
	deliveries []Delivery
}

func (r *captureRecorder) RecordDelivery(ctx context.Context, d Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

func (r *captureRecorder) last(t *testing.T) Delivery {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.deliveries) == 0 {
		t.Fatalf("no delivery recorded")
	}
	return r.deliveries[len(r.deliveries)-1]
}

func signedTestPayload(t *testing.T, action string) *SignedPayload {
	t.Helper()
	payload, err := NewEvent(action, Snapshot(eligibleEntry()), nil).Sign("secret")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	return payload
}

func TestDeliverSendsSignedRequest(t *testing.T) {
	var gotHeaders http.Header
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		gotBody = buf.Bytes()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	recorder := &captureRecorder{}
	payload := signedTestPayload(t, ActionCreate)
	NewDispatcher(recorder).Deliver(context.Background(), server.URL, payload)

	if got := gotHeaders.Get("Content-Type"); got != "application/json" {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := gotHeaders.Get("X-Webhook-Event"); got != EventName {
		t.Fatalf("X-Webhook-Event = %q", got)
	}
	if got := gotHeaders.Get("X-Webhook-Action"); got != ActionCreate {
		t.Fatalf("X-Webhook-Action = %q", got)
	}
	if !bytes.Equal(gotBody, payload.Body) {
		t.Fatalf("body was not transmitted verbatim")
	}
	if !VerifySignature(gotBody, "secret", gotHeaders.Get("X-Webhook-Signature")) {
		t.Fatalf("transmitted signature does not verify against transmitted body")
	}

	record := recorder.last(t)
	if record.StatusCode != http.StatusOK || record.Err != "" {
		t.Fatalf("unexpected delivery record: %+v", record)
	}
}

func TestDeliverSwallowsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	recorder := &captureRecorder{}
	NewDispatcher(recorder).Deliver(context.Background(), server.URL, signedTestPayload(t, ActionUpdate))

	record := recorder.last(t)
	if record.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", record.StatusCode)
	}
	if record.ResponseBody != "boom" {
		t.Fatalf("response body = %q", record.ResponseBody)
	}
}

func TestDeliverSwallowsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	recorder := &captureRecorder{}
	// Must not panic or block; the error is recorded, not returned.
	NewDispatcher(recorder).Deliver(context.Background(), url, signedTestPayload(t, ActionDelete))

	record := recorder.last(t)
	if record.Err == "" {
		t.Fatalf("expected recorded transport error")
	}
	if record.StatusCode != 0 {
		t.Fatalf("status = %d, want 0 on transport failure", record.StatusCode)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Fatalf("truncate short = %q", got)
	}
}
