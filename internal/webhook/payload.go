package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// EventName is the only event this pipeline emits.
const EventName = "overtime_sync"

// Actions carried in the payload and the X-Webhook-Action header.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Reasons carried in the context block of reassignment deliveries.
const (
	ReasonIssueNullified  = "issue_deleted_nullify"
	ReasonIssueReassigned = "issue_deleted_reassign"
)

// EventContext explains an indirect mutation: which issue the entries
// were linked to, and where they went.
type EventContext struct {
	Reason          string         `json:"reason"`
	OldIssueID      int64          `json:"old_issue_id"`
	OldIssueSubject string         `json:"old_issue_subject"`
	NewIssueID      int64          `json:"new_issue_id,omitempty"`
	NewIssueSubject string         `json:"new_issue_subject,omitempty"`
	NewIssue        *IssueSnapshot `json:"new_issue,omitempty"`
}

// Event is the webhook envelope. Field order fixes the serialized
// layout the signature covers.
type Event struct {
	Event     string            `json:"event"`
	Action    string            `json:"action"`
	Timestamp string            `json:"timestamp"`
	TimeEntry TimeEntrySnapshot `json:"time_entry"`
	Context   *EventContext     `json:"context,omitempty"`
}

// NewEvent builds an envelope around a snapshot, stamped with the
// current time. Context may be nil.
func NewEvent(action string, snapshot TimeEntrySnapshot, eventCtx *EventContext) *Event {
	return &Event{
		Event:     EventName,
		Action:    action,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		TimeEntry: snapshot,
		Context:   eventCtx,
	}
}

// SignedPayload is the exact byte sequence to transmit plus its
// signature. The signature is computed over Body after serialization,
// so Body must be sent verbatim.
type SignedPayload struct {
	Event     string
	Action    string
	Body      []byte
	Signature string
}

// Sign serializes the event and computes the HMAC over the resulting
// bytes.
func (e *Event) Sign(secret string) (*SignedPayload, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &SignedPayload{
		Event:     e.Event,
		Action:    e.Action,
		Body:      body,
		Signature: Signature(body, secret),
	}, nil
}

// Signature returns the lowercase hex HMAC-SHA256 of body under secret.
func Signature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature in constant time.
func VerifySignature(body []byte, secret, signature string) bool {
	expected := Signature(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
