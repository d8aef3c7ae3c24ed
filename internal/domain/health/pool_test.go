package health

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
)

type stubLoader struct {
	snaps map[string]*snapshot.Snapshot
	err   error
}

func (s stubLoader) Load(source, _ string) (*snapshot.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snaps[source], nil
}

func namedSources(names ...string) []*catalog.SourceDefinition {
	defs := make([]*catalog.SourceDefinition, 0, len(names))
	for _, n := range names {
		def := fixtureSource()
		def.Name = n
		defs = append(defs, def)
	}
	return defs
}

func TestValidateAllKeepsInputOrder(t *testing.T) {
	f := newFixtureFetcher()
	pool := NewPool(NewValidator(f, Options{}, nil, nil), nil, 4, nil)

	var mu sync.Mutex
	seen := 0
	pool.OnResult(func(SourceValidationResult) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	results := pool.ValidateAll(context.Background(), namedSources("c", "a", "b", "d", "e"))

	require.Len(t, results, 5)
	for i, want := range []string{"c", "a", "b", "d", "e"} {
		assert.Equal(t, want, results[i].SourceName)
		assert.Equal(t, Healthy, results[i].OverallStatus)
	}
	assert.Equal(t, 5, seen)
}

func TestValidateAllUsesSnapshots(t *testing.T) {
	f := newFixtureFetcher()
	loader := stubLoader{snaps: map[string]*snapshot.Snapshot{
		"b": {Selectors: map[catalog.PageType]map[string]snapshot.SelectorRecord{
			catalog.PageDetail: {"nameSelector": {Selector: "h1.title", Expected: strPtr("Sunrise")}},
		}},
	}}
	pool := NewPool(NewValidator(f, Options{}, nil, nil), loader, 2, nil)

	results := pool.ValidateAll(context.Background(), namedSources("a", "b"))

	assert.Equal(t, 7, results[0].Passed)
	assert.Equal(t, 1, results[1].Warnings)
}

func TestValidateAllSnapshotErrorTreatedAsAbsent(t *testing.T) {
	f := newFixtureFetcher()
	pool := NewPool(NewValidator(f, Options{}, nil, nil), stubLoader{err: errors.New("corrupt")}, 1, nil)

	results := pool.ValidateAll(context.Background(), namedSources("a"))

	require.Len(t, results, 1)
	assert.Equal(t, Healthy, results[0].OverallStatus)
}

func TestValidateAllCancelled(t *testing.T) {
	f := newFixtureFetcher()
	pool := NewPool(NewValidator(f, Options{}, nil, nil), nil, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := pool.ValidateAll(ctx, namedSources("a", "b", "c"))

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, Skipped, r.OverallStatus)
		assert.Equal(t, []string{MsgCancelled}, r.FetchErrors)
	}
	assert.Zero(t, f.total())
}

func TestNewPoolClampsWorkers(t *testing.T) {
	pool := NewPool(nil, nil, 0, nil)
	assert.Equal(t, 1, pool.workers)
}
