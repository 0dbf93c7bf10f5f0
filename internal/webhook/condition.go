package webhook

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ConditionEvaluator gates deliveries on the admin-configured filter
// expression. An empty expression always passes. The compiled program
// is cached per source string since settings are re-read per event.
type ConditionEvaluator struct {
	mu      sync.Mutex
	source  string
	program *vm.Program
}

func NewConditionEvaluator() *ConditionEvaluator {
	return &ConditionEvaluator{}
}

// Allow evaluates the condition against the event. Evaluation failures
// are logged and the event is skipped (returns false): a broken filter
// must not let unfiltered events through.
func (ce *ConditionEvaluator) Allow(condition string, ev *Event) bool {
	if condition == "" {
		return true
	}

	program, err := ce.compile(condition)
	if err != nil {
		log.Printf("[Webhook] ERROR: compile filter condition: %v", err)
		return false
	}

	env := map[string]any{
		"event":      ev.Event,
		"action":     ev.Action,
		"time_entry": snapshotEnv(ev.TimeEntry),
	}
	result, err := expr.Run(program, env)
	if err != nil {
		log.Printf("[Webhook] ERROR: evaluate filter condition: %v", err)
		return false
	}
	pass, ok := result.(bool)
	if !ok {
		log.Printf("[Webhook] ERROR: filter condition did not return bool")
		return false
	}
	return pass
}

func (ce *ConditionEvaluator) compile(condition string) (*vm.Program, error) {
	ce.mu.Lock()
	defer ce.mu.Unlock()

	if ce.source == condition && ce.program != nil {
		return ce.program, nil
	}
	program, err := expr.Compile(condition, expr.AsBool())
	if err != nil {
		return nil, err
	}
	ce.source = condition
	ce.program = program
	return program, nil
}

// snapshotEnv exposes the snapshot to the expression as plain maps,
// matching the JSON shape admins see in payloads.
func snapshotEnv(snapshot TimeEntrySnapshot) map[string]any {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return map[string]any{}
	}
	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return map[string]any{}
	}
	return env
}
