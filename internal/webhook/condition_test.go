package webhook

import "testing"

func TestConditionEmptyAlwaysPasses(t *testing.T) {
	ce := NewConditionEvaluator()
	ev := NewEvent(ActionCreate, Snapshot(eligibleEntry()), nil)
	if !ce.Allow("", ev) {
		t.Fatalf("empty condition should pass")
	}
}

func TestConditionFiltersByAction(t *testing.T) {
	ce := NewConditionEvaluator()
	cond := `action == "create"`

	create := NewEvent(ActionCreate, Snapshot(eligibleEntry()), nil)
	if !ce.Allow(cond, create) {
		t.Fatalf("create event should pass %q", cond)
	}

	del := NewEvent(ActionDelete, Snapshot(eligibleEntry()), nil)
	if ce.Allow(cond, del) {
		t.Fatalf("delete event should not pass %q", cond)
	}
}

func TestConditionSeesEntryFields(t *testing.T) {
	ce := NewConditionEvaluator()
	ev := NewEvent(ActionUpdate, Snapshot(eligibleEntry()), nil)

	if !ce.Allow(`time_entry.hours > 1.5`, ev) {
		t.Fatalf("hours condition should pass for 2h entry")
	}
	if ce.Allow(`time_entry.hours > 8`, ev) {
		t.Fatalf("hours condition should fail for 2h entry")
	}
	if !ce.Allow(`time_entry.activity.name == "Overtime"`, ev) {
		t.Fatalf("activity name condition should pass")
	}
}

func TestConditionFailureSkipsEvent(t *testing.T) {
	ce := NewConditionEvaluator()
	ev := NewEvent(ActionCreate, Snapshot(eligibleEntry()), nil)

	if ce.Allow(`this is not an expression (`, ev) {
		t.Fatalf("unparseable condition must skip the event")
	}
	if ce.Allow(`time_entry.missing.field == 1`, ev) {
		t.Fatalf("runtime failure must skip the event")
	}
}

func TestConditionRecompilesOnChange(t *testing.T) {
	ce := NewConditionEvaluator()
	ev := NewEvent(ActionCreate, Snapshot(eligibleEntry()), nil)

	if !ce.Allow(`action == "create"`, ev) {
		t.Fatalf("first condition should pass")
	}
	if ce.Allow(`action == "delete"`, ev) {
		t.Fatalf("changed condition should apply, not the cached one")
	}
	if !ce.Allow(`action == "create"`, ev) {
		t.Fatalf("switching back should recompile and pass")
	}
}
