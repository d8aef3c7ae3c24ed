package health

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
)

// SnapshotLoader finds the stored snapshot of a source.
type SnapshotLoader interface {
	Load(source, lang string) (*snapshot.Snapshot, error)
}

// Pool validates many sources with a bounded number of workers.
type Pool struct {
	validator *Validator
	snapshots SnapshotLoader
	workers   int
	logger    *zap.Logger
	progress  func(SourceValidationResult)
}

// NewPool creates a pool of workers, at least one.
func NewPool(v *Validator, snapshots SnapshotLoader, workers int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{validator: v, snapshots: snapshots, workers: workers, logger: logger}
}

// OnResult registers a callback invoked as each source finishes. It may be
// called from several goroutines at once.
func (p *Pool) OnResult(fn func(SourceValidationResult)) {
	p.progress = fn
}

// Snapshot loads the snapshot of def, treating unreadable files as absent.
func (p *Pool) Snapshot(def *catalog.SourceDefinition) *snapshot.Snapshot {
	if p.snapshots == nil {
		return nil
	}
	snap, err := p.snapshots.Load(def.Name, def.Lang)
	if err != nil {
		p.logger.Warn("snapshot unreadable, validating without it", zap.String("source", def.Name), zap.Error(err))
		return nil
	}
	return snap
}

// ValidateAll validates defs and returns results in input order. After
// ctx is cancelled no new source is started; those are reported skipped.
func (p *Pool) ValidateAll(ctx context.Context, defs []*catalog.SourceDefinition) []SourceValidationResult {
	results := make([]SourceValidationResult, len(defs))

	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for i, def := range defs {
		if ctx.Err() != nil {
			results[i] = skip(def, MsgCancelled)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = skip(def, MsgCancelled)
				return nil
			}
			results[i] = p.validator.Validate(ctx, def, p.Snapshot(def))
			if p.progress != nil {
				p.progress(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
