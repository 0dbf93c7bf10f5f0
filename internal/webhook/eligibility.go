package webhook

import (
	"log"
	"strings"

	"timetrack-backend/internal/timelog"
)

// Activity names that classify an entry as overtime (case-insensitive
// substring match). Deployments vary in naming, so matching is loose.
var overtimeActivityNames = []string{"overtime", "ot"}

// Recognized aliases for the start/end time custom fields. Matching is a
// case-insensitive substring test so renamed fields keep working; this
// is a configuration contract with the deployment, not validation.
var (
	startTimeFieldNames = []string{"start time", "start_time", "starttime"}
	endTimeFieldNames   = []string{"end time", "end_time", "endtime"}
)

// IsOvertimeActivity reports whether the entry's activity classifies it
// as overtime. Entries without an activity never match.
func IsOvertimeActivity(entry *timelog.TimeEntry) bool {
	if entry == nil || entry.Activity == nil {
		return false
	}
	name := strings.TrimSpace(strings.ToLower(entry.Activity.Name))
	for _, ot := range overtimeActivityNames {
		if strings.Contains(name, ot) {
			return true
		}
	}
	return false
}

// StartTimeValue returns the first custom field value whose name matches
// a start-time alias, or "" when absent.
func StartTimeValue(entry *timelog.TimeEntry) string {
	return customFieldValue(entry, startTimeFieldNames)
}

// EndTimeValue returns the first custom field value whose name matches
// an end-time alias, or "" when absent.
func EndTimeValue(entry *timelog.TimeEntry) string {
	return customFieldValue(entry, endTimeFieldNames)
}

func customFieldValue(entry *timelog.TimeEntry, aliases []string) string {
	if entry == nil {
		return ""
	}
	for _, cfv := range entry.CustomFieldValues {
		name := strings.TrimSpace(strings.ToLower(cfv.FieldName))
		for _, alias := range aliases {
			if strings.Contains(name, alias) {
				return cfv.Value
			}
		}
	}
	return ""
}

// ValidOvertimePayload is the full eligibility check for create/update
// deliveries: overtime activity, hours > 0, and both time fields
// present. Delete notices only require the activity match.
func ValidOvertimePayload(entry *timelog.TimeEntry) bool {
	if entry == nil {
		return false
	}
	if entry.Hours <= 0 {
		log.Printf("[Webhook] Invalid: hours is empty or zero (entry #%d)", entry.ID)
		return false
	}
	if !IsOvertimeActivity(entry) {
		log.Printf("[Webhook] Invalid: activity is not overtime (entry #%d)", entry.ID)
		return false
	}
	if strings.TrimSpace(StartTimeValue(entry)) == "" {
		log.Printf("[Webhook] Invalid: start time is empty (entry #%d)", entry.ID)
		return false
	}
	if strings.TrimSpace(EndTimeValue(entry)) == "" {
		log.Printf("[Webhook] Invalid: end time is empty (entry #%d)", entry.ID)
		return false
	}
	return true
}
