package milestone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDefinitions_FormValidRegistry(t *testing.T) {
	r, err := NewRegistry(DefaultDefinitions())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultDefinitions()), r.Len())

	categories := map[Category]bool{}
	for _, d := range r.Definitions() {
		categories[d.Category] = true
	}
	for _, c := range []Category{CategorySocial, CategoryStreak, CategoryAchievement, CategoryFitness, CategoryCompetition} {
		assert.True(t, categories[c], "catalog should cover %s", c)
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	valid := Definition{ID: "a", Category: CategorySocial, Evaluator: FirstTime{Metric: "x"}, Event: "e"}

	tests := []struct {
		name    string
		defs    []Definition
		wantErr string
	}{
		{
			name:    "empty id",
			defs:    []Definition{{Category: CategorySocial, Evaluator: FirstTime{Metric: "x"}, Event: "e"}},
			wantErr: "id is required",
		},
		{
			name:    "duplicate id",
			defs:    []Definition{valid, valid},
			wantErr: "duplicate id",
		},
		{
			name:    "missing event",
			defs:    []Definition{{ID: "a", Category: CategorySocial, Evaluator: FirstTime{Metric: "x"}}},
			wantErr: "event is required",
		},
		{
			name:    "missing evaluator",
			defs:    []Definition{{ID: "a", Category: CategorySocial, Event: "e"}},
			wantErr: "evaluator is required",
		},
		{
			name:    "custom without predicate",
			defs:    []Definition{{ID: "a", Category: CategorySocial, Evaluator: Custom{Name: "c"}, Event: "e"}},
			wantErr: "no predicate",
		},
		{
			name:    "unknown category",
			defs:    []Definition{{ID: "a", Category: "leaderboard", Evaluator: FirstTime{Metric: "x"}, Event: "e"}},
			wantErr: "unknown category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.defs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRegistry_PreservesOrderAndIsolatesInput(t *testing.T) {
	defs := []Definition{
		{ID: "b", Category: CategoryFitness, Evaluator: FirstTime{Metric: "x"}, Event: "e", EventProperties: map[string]any{"k": 1}},
		{ID: "a", Category: CategoryFitness, Evaluator: FirstTime{Metric: "x"}, Event: "e"},
	}
	r := MustRegistry(defs)

	defs[0].ID = "mutated"
	defs[0].EventProperties["k"] = 2

	got := r.Definitions()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, 1, got[0].EventProperties["k"])

	d, ok := r.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, "a", d.ID)

	_, ok = r.Lookup("mutated")
	assert.False(t, ok)
}

func TestMustRegistry_PanicsOnInvalidTable(t *testing.T) {
	assert.Panics(t, func() {
		MustRegistry([]Definition{{ID: ""}})
	})
}
