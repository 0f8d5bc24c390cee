package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/decstore/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// This is required because ir.MarshalCanonical only handles IR types and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := ir.IRObject{
			"step":       ir.IRInt(event.Step),
			"type":       ir.IRString(event.Type),
			"collection": ir.IRString(event.Collection),
		}
		if event.ID != "" {
			eventMap["id"] = ir.IRString(event.ID)
		}
		if event.Seq != 0 {
			eventMap["seq"] = ir.IRInt(event.Seq)
		}
		if event.Body != nil {
			eventMap["body"] = event.Body
		}
		if event.Query != "" {
			eventMap["query"] = ir.IRString(event.Query)
		}
		if event.Type == EventQuery && event.Error == "" {
			ids := make(ir.IRArray, len(event.IDs))
			for j, id := range event.IDs {
				ids[j] = ir.IRString(id)
			}
			eventMap["ids"] = ids
		}
		if event.Error != "" {
			eventMap["error"] = ir.IRString(event.Error)
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
