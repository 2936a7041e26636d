package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkItemLocation(t *testing.T) {
	tests := []struct {
		name string
		item WorkItem
		want string
	}{
		{
			name: "feature item uses bare path",
			item: WorkItem{Kind: KindFeature, Feature: "features/login.feature"},
			want: "features/login.feature",
		},
		{
			name: "scenario item appends line",
			item: WorkItem{Kind: KindScenario, Feature: "features/cart.feature", Line: 12},
			want: "features/cart.feature:12",
		},
		{
			name: "scenario item without line falls back to path",
			item: WorkItem{Kind: KindScenario, Feature: "features/cart.feature"},
			want: "features/cart.feature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Location())
		})
	}
}

func TestWorkItemString(t *testing.T) {
	item := WorkItem{Kind: KindScenario, Feature: "features/login.feature", Line: 7, Name: "Successful login"}
	assert.Equal(t, "features/login.feature:7 - Successful login", item.String())

	bare := WorkItem{Kind: KindFeature, Feature: "features/login.feature"}
	assert.Equal(t, "features/login.feature", bare.String())
}

func TestWorkerResultPassed(t *testing.T) {
	assert.True(t, WorkerResult{ExitCode: 0}.Passed())
	assert.False(t, WorkerResult{ExitCode: 1}.Passed())
	assert.False(t, WorkerResult{ExitCode: 0, Err: assert.AnError}.Passed())
}

func TestRunOutcomeSuccess(t *testing.T) {
	t.Run("empty outcome is not success", func(t *testing.T) {
		outcome := &RunOutcome{}
		assert.False(t, outcome.Success())
	})

	t.Run("all zero exit codes is success", func(t *testing.T) {
		outcome := &RunOutcome{Results: []WorkerResult{
			{ExitCode: 0},
			{ExitCode: 0},
		}}
		assert.True(t, outcome.Success())
	})

	t.Run("single failure fails the run", func(t *testing.T) {
		outcome := &RunOutcome{Results: []WorkerResult{
			{ExitCode: 0},
			{ExitCode: 2},
			{ExitCode: 0},
		}}
		assert.False(t, outcome.Success())
	})
}

func TestRunOutcomeCounts(t *testing.T) {
	outcome := &RunOutcome{
		Results: []WorkerResult{
			{Item: WorkItem{Feature: "a.feature"}, ExitCode: 0, Duration: time.Second},
			{Item: WorkItem{Feature: "b.feature"}, ExitCode: 1},
			{Item: WorkItem{Feature: "c.feature"}, ExitCode: 0},
		},
	}

	passed, failed := outcome.Counts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 1, failed)

	failedResults := outcome.Failed()
	require.Len(t, failedResults, 1)
	assert.Equal(t, "b.feature", failedResults[0].Item.Feature)
}
