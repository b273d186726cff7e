package screen

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkweon/athena/internal/contracts"
	"github.com/mkweon/athena/internal/pit"
	"github.com/mkweon/athena/internal/strategy"
	"github.com/mkweon/athena/pkg/logger"
)

// Pipeline runs the full three-stage filter for one date.
// ⭐ SSOT: screening semantics live here and nowhere else.
type Pipeline struct {
	collector *Collector
	qualifier *Qualifier
	excluder  *Excluder
	scorer    *Scorer
	config    *strategy.Config
	logger    *logger.Logger
}

// NewPipeline wires the filter stages from one strategy config.
func NewPipeline(view *pit.View, config *strategy.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		collector: NewCollector(view, config.Qualification.ROEYears, config.Exclusion.IntegrityLookback),
		qualifier: NewQualifier(config.Qualification),
		excluder:  NewExcluder(config.Exclusion),
		scorer:    NewScorer(config.Scoring),
		config:    config,
		logger:    log,
	}
}

// ScreenAt evaluates the whole universe as of date and returns one
// ScoreRecord per tradable entity, sorted by score descending with
// entity ID as the tie-break. Entities whose core data is missing are
// skipped, not failed. The diversification pass runs over the records
// that reached the pool.
func (p *Pipeline) ScreenAt(ctx context.Context, date time.Time, universe []contracts.Entity) ([]contracts.ScoreRecord, error) {
	tradable := make([]contracts.Entity, 0, len(universe))
	for _, e := range universe {
		if e.Tradable() {
			tradable = append(tradable, e)
		}
	}

	metrics, err := p.collectAll(ctx, date, tradable)
	if err != nil {
		return nil, err
	}

	groups := p.buildGroups(metrics)

	records := make([]contracts.ScoreRecord, 0, len(metrics))
	for _, m := range metrics {
		records = append(records, p.evaluate(m, groups[m.Group], date))
	}

	// Deterministic order before diversification; it prunes by position.
	sort.Slice(records, func(i, j int) bool {
		if records[i].TotalScore != records[j].TotalScore {
			return records[i].TotalScore > records[j].TotalScore
		}
		return records[i].Entity < records[j].Entity
	})

	records = p.applyDiversification(records)

	p.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"universe": len(universe),
		"scored":   len(records),
		"in_pool":  countInPool(records),
	}).Info("Screening completed")

	return records, nil
}

// Pool filters a record list down to the entities that passed all stages.
func Pool(records []contracts.ScoreRecord) []contracts.ScoreRecord {
	pool := make([]contracts.ScoreRecord, 0, len(records))
	for _, rec := range records {
		if rec.InPool() {
			pool = append(pool, rec)
		}
	}
	return pool
}

// collectAll gathers metrics for every entity with a bounded worker pool.
// Entities without core data are dropped; any other error aborts.
func (p *Pipeline) collectAll(ctx context.Context, date time.Time, universe []contracts.Entity) ([]*EntityMetrics, error) {
	var mu sync.Mutex
	collected := make([]*EntityMetrics, 0, len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Backtest.Workers)

	for _, entity := range universe {
		entity := entity
		g.Go(func() error {
			m, err := p.collector.Collect(gctx, entity, date)
			if err != nil {
				if contracts.IsDataUnavailable(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			collected = append(collected, m)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Worker completion order is nondeterministic; restore a stable one.
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Entity.ID < collected[j].Entity.ID
	})
	return collected, nil
}

func (p *Pipeline) buildGroups(metrics []*EntityMetrics) map[string]*GroupContext {
	byGroup := make(map[string][]*EntityMetrics)
	for _, m := range metrics {
		byGroup[m.Group] = append(byGroup[m.Group], m)
	}

	groups := make(map[string]*GroupContext, len(byGroup))
	for name, members := range byGroup {
		groups[name] = NewGroupContext(members)
	}
	return groups
}

// evaluate runs one entity through the stages. Qualification failure
// short-circuits; exclusion evaluates every veto for the reason list.
func (p *Pipeline) evaluate(m *EntityMetrics, group *GroupContext, date time.Time) contracts.ScoreRecord {
	rec := contracts.ScoreRecord{
		Entity: m.Entity.ID,
		Name:   m.Entity.Name,
		Group:  m.Group,
		Date:   date,
	}

	if reason := p.qualifier.Check(m, group); reason != "" {
		p.logger.WithFields(map[string]interface{}{
			"stage":  contracts.StageQualify.ShortName(),
			"entity": m.Entity.ID,
			"reason": reason,
		}).Debug("Disqualified")
		return rec
	}
	rec.PassedQualification = true

	rec.ExclusionReasons = p.excluder.Check(m, group)
	if len(rec.ExclusionReasons) > 0 {
		p.logger.WithFields(map[string]interface{}{
			"stage":   contracts.StageExclude.ShortName(),
			"entity":  m.Entity.ID,
			"reasons": rec.ExclusionReasons,
		}).Debug("Excluded")
		return rec
	}
	rec.PassedExclusion = true

	rec.Financial, rec.Competitive = p.scorer.Score(m, group)
	rec.TotalScore = rec.Financial.Sum() + rec.Competitive.Sum()
	rec.PassedScoring = rec.TotalScore >= p.config.Scoring.PassThreshold

	return rec
}

// applyDiversification prunes the pool and rewrites the pruned entities'
// records so they no longer count as pool members.
func (p *Pipeline) applyDiversification(records []contracts.ScoreRecord) []contracts.ScoreRecord {
	pool := Pool(records)
	kept := Diversify(pool, p.config.Diversification)

	keptSet := make(map[string]bool, len(kept))
	for _, rec := range kept {
		keptSet[rec.Entity] = true
	}

	for i := range records {
		if records[i].InPool() && !keptSet[records[i].Entity] {
			records[i].PassedScoring = false
			records[i].ExclusionReasons = append(records[i].ExclusionReasons, contracts.ReasonDiversification)
		}
	}
	return records
}

func countInPool(records []contracts.ScoreRecord) int {
	n := 0
	for _, rec := range records {
		if rec.InPool() {
			n++
		}
	}
	return n
}
