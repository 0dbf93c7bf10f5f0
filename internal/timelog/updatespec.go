package timelog

import (
	"regexp"
	"strconv"
)

// UpdateSpec describes the SET portion of a bulk update in one of the
// three shapes the host primitive accepts. Interceptors introspect it
// via ExtractAssignment; the repository renders it to SQL.
type UpdateSpec interface {
	// ExtractAssignment returns the value assigned to the named column,
	// and whether the spec assigns that column at all. A nil value with
	// ok=true means the column is being set to NULL.
	ExtractAssignment(column string) (value any, ok bool)

	isUpdateSpec()
}

// KeyValueUpdate is the associative shape: column -> new value.
type KeyValueUpdate map[string]any

func (u KeyValueUpdate) isUpdateSpec() {}

func (u KeyValueUpdate) ExtractAssignment(column string) (any, bool) {
	v, ok := u[column]
	if !ok {
		return nil, false
	}
	return normalizeAssigned(v), true
}

// PositionalUpdate is a template with '?' placeholders plus positional
// values, e.g. {"issue_id = ?, project_id = ?", [nil, 42]}.
type PositionalUpdate struct {
	Template string
	Values   []any
}

func (u PositionalUpdate) isUpdateSpec() {}

func (u PositionalUpdate) ExtractAssignment(column string) (any, bool) {
	re := regexp.MustCompile(`(^|[\s,])` + regexp.QuoteMeta(column) + `\s*=\s*\?`)
	loc := re.FindStringIndex(u.Template)
	if loc == nil {
		// The template may assign a literal instead of a placeholder.
		return extractLiteralAssignment(u.Template, column)
	}
	// The placeholder for this column is the Nth '?' in the template.
	n := 0
	for i := 0; i < loc[1]-1; i++ {
		if u.Template[i] == '?' {
			n++
		}
	}
	if n >= len(u.Values) {
		return nil, false
	}
	return normalizeAssigned(u.Values[n]), true
}

// RawUpdate is a literal SQL SET clause, e.g. "issue_id = NULL".
type RawUpdate string

func (u RawUpdate) isUpdateSpec() {}

func (u RawUpdate) ExtractAssignment(column string) (any, bool) {
	return extractLiteralAssignment(string(u), column)
}

func extractLiteralAssignment(clause, column string) (any, bool) {
	nullRe := regexp.MustCompile(`(?i)(^|[\s,])` + regexp.QuoteMeta(column) + `\s*=\s*NULL`)
	if nullRe.MatchString(clause) {
		return nil, true
	}
	numRe := regexp.MustCompile(`(^|[\s,])` + regexp.QuoteMeta(column) + `\s*=\s*(\d+)`)
	if m := numRe.FindStringSubmatch(clause); m != nil {
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

// normalizeAssigned widens numeric assignment values to int64 so
// interceptors see one integer type regardless of the caller's choice.
func normalizeAssigned(v any) any {
	switch n := v.(type) {
	case nil:
		return nil
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case *int64:
		if n == nil {
			return nil
		}
		return *n
	default:
		return v
	}
}
