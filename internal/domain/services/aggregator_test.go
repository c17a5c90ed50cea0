package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

func TestAggregator_ConcurrentRecord(t *testing.T) {
	const total = 200
	agg := NewAggregator(total)

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agg.Record(entities.RunResult{
				Item:    entities.WorkItem{Seq: i},
				Success: i%10 != 0,
			})
		}(i)
	}
	wg.Wait()

	assert.True(t, agg.Done())
	assert.Equal(t, total, agg.Completed())
	assert.Equal(t, 20, agg.Failed())
	assert.Len(t, agg.Failures(), 20)

	outcome := agg.Outcome("default")
	assert.Equal(t, "default", outcome.Config)
	assert.Equal(t, total, outcome.Dispatched)
	assert.False(t, outcome.Passed())
}

func TestAggregator_Snapshot(t *testing.T) {
	agg := NewAggregator(4)
	agg.Record(entities.RunResult{Success: true})
	agg.Record(entities.RunResult{Success: false, Output: "bad roundtrip"})

	p := agg.Snapshot("uniform")
	assert.Equal(t, "uniform", p.Label)
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, 1, p.Failed)
	assert.Equal(t, 4, p.Total)
	assert.InDelta(t, 50.0, p.Percent(), 0.001)
	assert.False(t, agg.Done())
}

func TestAggregator_FailuresAreCopies(t *testing.T) {
	agg := NewAggregator(1)
	agg.Record(entities.RunResult{Output: "first"})

	got := agg.Failures()
	got[0].Output = "changed"

	assert.Equal(t, "first", agg.Failures()[0].Output)
}

func TestProgress_PercentEmptyRound(t *testing.T) {
	assert.InDelta(t, 100.0, Progress{}.Percent(), 0.001)
}

func TestRoundOutcome_PassedRequiresFullDrain(t *testing.T) {
	outcome := entities.RoundOutcome{Dispatched: 3, Completed: 2}
	assert.False(t, outcome.Passed())

	outcome.Completed = 3
	assert.True(t, outcome.Passed())

	summary := entities.RunSummary{Rounds: []entities.RoundOutcome{outcome, {Dispatched: 1, Completed: 1}}}
	assert.True(t, summary.Passed())
	assert.Equal(t, 4, summary.Dispatched())
}
