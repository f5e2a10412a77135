package pricing

import (
	"math"
	"testing"

	"github.com/fpt/go-expert-panel/pkg/message"
)

func assertCostNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("%s = %.10f, want %.10f", name, got, want)
	}
}

func testTable() *Table {
	return NewTable("base", map[string]Rate{
		"base":        {InputPer1K: 0.003, OutputPer1K: 0.015},
		"cheap":       {InputPer1K: 0.0005, OutputPer1K: 0.0015},
		"dated-model": {InputPer1K: 0.01, OutputPer1K: 0.03},
	})
}

func TestRateCost(t *testing.T) {
	r := Rate{InputPer1K: 0.0025, OutputPer1K: 0.010}
	assertCostNear(t, "cost", r.Cost(message.NewTokenUsage(2000, 1000)), 0.005+0.010)
	assertCostNear(t, "zero", r.Cost(message.TokenUsage{}), 0)
}

func TestLookupFallsBackToDefault(t *testing.T) {
	table := testTable()

	rate, found := table.Lookup("unknown-model")
	if found {
		t.Fatal("Expected found=false for unknown model")
	}
	if rate != (Rate{InputPer1K: 0.003, OutputPer1K: 0.015}) {
		t.Fatalf("Expected default rate, got %+v", rate)
	}

	// 1000 prompt + 500 completion at the default rate
	assertCostNear(t, "default cost", table.Cost("unknown-model", message.NewTokenUsage(1000, 500)), 1*0.003+0.5*0.015)
}

func TestLookupNormalizesDateSuffix(t *testing.T) {
	table := testTable()
	tests := []struct {
		model string
		found bool
	}{
		{"cheap", true},
		{"dated-model-20240229", true},
		{"dated-model-2024-04-09", true},
		{"Dated-Model", true},
		{"cheap-mini", false},
	}
	for _, tt := range tests {
		if got := table.Has(tt.model); got != tt.found {
			t.Errorf("Has(%q) = %v, want %v", tt.model, got, tt.found)
		}
	}
}

func TestCostIsDeterministic(t *testing.T) {
	table := testTable()
	u := message.NewTokenUsage(1234, 567)
	if table.Cost("cheap", u) != table.Cost("cheap", u) {
		t.Fatal("Expected identical cost for identical input")
	}
}

func TestNewTablePanicsWithoutDefault(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Expected panic for missing default entry")
		}
	}()
	NewTable("missing", map[string]Rate{"a": {}})
}
