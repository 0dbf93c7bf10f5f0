package webhook

import (
	"testing"

	"timetrack-backend/internal/timelog"
)

func entryWithActivity(name string) *timelog.TimeEntry {
	return &timelog.TimeEntry{
		ID:       1,
		Hours:    2,
		Activity: &timelog.Activity{ID: 9, Name: name},
	}
}

func eligibleEntry() *timelog.TimeEntry {
	entry := entryWithActivity("Overtime")
	entry.CustomFieldValues = []timelog.CustomFieldValue{
		{FieldID: 1, FieldName: "Start Time", Value: "18:00"},
		{FieldID: 2, FieldName: "End Time", Value: "20:00"},
	}
	return entry
}

func TestIsOvertimeActivity(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Overtime", true},
		{"OT", true},
		{"  Weekend OT  ", true},
		{"overtime (billable)", true},
		{"Development", false},
		{"Meeting", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsOvertimeActivity(entryWithActivity(tc.name)); got != tc.want {
			t.Fatalf("IsOvertimeActivity(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsOvertimeActivityNilCases(t *testing.T) {
	if IsOvertimeActivity(nil) {
		t.Fatalf("nil entry should not match")
	}
	if IsOvertimeActivity(&timelog.TimeEntry{ID: 1}) {
		t.Fatalf("entry without activity should not match")
	}
}

func TestTimeFieldAliases(t *testing.T) {
	cases := []struct {
		field string
		start bool
	}{
		{"Start Time", true},
		{"start_time", true},
		{"OT StartTime", true},
		{"End Time", false},
		{"end_time", false},
		{"Shift EndTime", false},
	}
	for _, tc := range cases {
		entry := entryWithActivity("Overtime")
		entry.CustomFieldValues = []timelog.CustomFieldValue{
			{FieldID: 1, FieldName: tc.field, Value: "10:00"},
		}
		got := StartTimeValue(entry)
		if tc.start && got != "10:00" {
			t.Fatalf("StartTimeValue with field %q = %q, want 10:00", tc.field, got)
		}
		if !tc.start {
			if got != "" {
				t.Fatalf("StartTimeValue with field %q = %q, want empty", tc.field, got)
			}
			if EndTimeValue(entry) != "10:00" {
				t.Fatalf("EndTimeValue with field %q did not match", tc.field)
			}
		}
	}
}

func TestTimeFieldFirstMatchWins(t *testing.T) {
	entry := entryWithActivity("Overtime")
	entry.CustomFieldValues = []timelog.CustomFieldValue{
		{FieldID: 1, FieldName: "Start Time", Value: "08:00"},
		{FieldID: 3, FieldName: "start_time", Value: "09:00"},
	}
	if got := StartTimeValue(entry); got != "08:00" {
		t.Fatalf("expected first matching field to win, got %q", got)
	}
}

func TestValidOvertimePayload(t *testing.T) {
	if !ValidOvertimePayload(eligibleEntry()) {
		t.Fatalf("eligible entry should be valid")
	}

	zero := eligibleEntry()
	zero.Hours = 0
	if ValidOvertimePayload(zero) {
		t.Fatalf("zero hours should be invalid")
	}

	wrongActivity := eligibleEntry()
	wrongActivity.Activity.Name = "Development"
	if ValidOvertimePayload(wrongActivity) {
		t.Fatalf("non-overtime activity should be invalid")
	}

	noStart := eligibleEntry()
	noStart.CustomFieldValues = noStart.CustomFieldValues[1:]
	if ValidOvertimePayload(noStart) {
		t.Fatalf("missing start time should be invalid")
	}

	noEnd := eligibleEntry()
	noEnd.CustomFieldValues = noEnd.CustomFieldValues[:1]
	if ValidOvertimePayload(noEnd) {
		t.Fatalf("missing end time should be invalid")
	}

	blankStart := eligibleEntry()
	blankStart.CustomFieldValues[0].Value = "   "
	if ValidOvertimePayload(blankStart) {
		t.Fatalf("whitespace start time should be invalid")
	}

	if ValidOvertimePayload(nil) {
		t.Fatalf("nil entry should be invalid")
	}
}
