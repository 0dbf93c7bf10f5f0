package webhook

import (
	"encoding/json"
	"strings"
	"testing"

	"timetrack-backend/internal/timelog"
)

func TestSignatureDeterministic(t *testing.T) {
	body := []byte(`{"event":"overtime_sync"}`)
	a := Signature(body, "secret")
	b := Signature(body, "secret")
	if a != b {
		t.Fatalf("same body and secret produced different signatures: %s vs %s", a, b)
	}
	if len(a) != 64 || strings.ToLower(a) != a {
		t.Fatalf("signature should be 64 lowercase hex chars, got %q", a)
	}
	if Signature(body, "other") == a {
		t.Fatalf("different secrets should produce different signatures")
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"action":"create"}`)
	sig := Signature(body, "secret")

	if !VerifySignature(body, "secret", sig) {
		t.Fatalf("valid signature did not verify")
	}
	if VerifySignature(body, "wrong", sig) {
		t.Fatalf("signature verified under wrong secret")
	}

	mutated := append([]byte{}, body...)
	mutated[0] = '['
	if VerifySignature(mutated, "secret", sig) {
		t.Fatalf("signature verified over mutated body")
	}
}

func TestSignCoversSerializedBytes(t *testing.T) {
	ev := NewEvent(ActionCreate, Snapshot(eligibleEntry()), nil)
	payload, err := ev.Sign("secret")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !VerifySignature(payload.Body, "secret", payload.Signature) {
		t.Fatalf("signature does not cover the serialized body")
	}
	if payload.Event != EventName || payload.Action != ActionCreate {
		t.Fatalf("payload headers mismatch: %s/%s", payload.Event, payload.Action)
	}
}

func TestEventWireShape(t *testing.T) {
	entry := eligibleEntry()
	entry.User = &timelog.User{ID: 3, Login: "jdoe", Firstname: "Jo", Lastname: "Doe", Mail: "jo@example.com"}
	entry.Project = &timelog.Project{ID: 4, Identifier: "acme", Name: "Acme"}
	entry.Issue = &timelog.Issue{ID: 5, Subject: "Fix it", Tracker: "Bug"}

	ev := NewEvent(ActionUpdate, Snapshot(entry), nil)
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	// The envelope starts with the fixed field order the receiver and
	// the signature depend on.
	if !strings.HasPrefix(string(raw), `{"event":"overtime_sync","action":"update","timestamp":"`) {
		t.Fatalf("unexpected envelope prefix: %s", raw)
	}
	if strings.Contains(string(raw), `"context"`) {
		t.Fatalf("nil context should be omitted: %s", raw)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	te, _ := decoded["time_entry"].(map[string]any)
	if te == nil {
		t.Fatalf("missing time_entry block")
	}
	if te["hours"].(float64) != 2 {
		t.Fatalf("hours = %v, want 2", te["hours"])
	}
	user, _ := te["user"].(map[string]any)
	if user == nil || user["login"] != "jdoe" {
		t.Fatalf("user block missing or wrong: %v", te["user"])
	}
	issue, _ := te["issue"].(map[string]any)
	if issue == nil || issue["tracker"] != "Bug" {
		t.Fatalf("issue block missing or wrong: %v", te["issue"])
	}
}

func TestEventContextSerialization(t *testing.T) {
	ev := NewEvent(ActionDelete, Snapshot(eligibleEntry()), &EventContext{
		Reason:          ReasonIssueNullified,
		OldIssueID:      7,
		OldIssueSubject: "Old task",
	})
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	s := string(raw)
	if !strings.Contains(s, `"reason":"issue_deleted_nullify"`) {
		t.Fatalf("missing reason: %s", s)
	}
	if !strings.Contains(s, `"old_issue_id":7`) {
		t.Fatalf("missing old_issue_id: %s", s)
	}
	if strings.Contains(s, "new_issue") {
		t.Fatalf("nullify context should omit new issue fields: %s", s)
	}
}

func TestSnapshotSeveredReferences(t *testing.T) {
	entry := &timelog.TimeEntry{ID: 8, Hours: 1.5, SpentOn: "2026-01-15"}
	raw, err := json.Marshal(Snapshot(entry))
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	s := string(raw)
	for _, field := range []string{`"activity":null`, `"user":null`, `"project":null`, `"issue":null`} {
		if !strings.Contains(s, field) {
			t.Fatalf("expected %s in %s", field, s)
		}
	}
	if !strings.Contains(s, `"custom_field_values":[]`) {
		t.Fatalf("custom_field_values should serialize as empty array: %s", s)
	}
	if !strings.Contains(s, `"created_on":""`) {
		t.Fatalf("zero created_on should serialize as empty string: %s", s)
	}
}
