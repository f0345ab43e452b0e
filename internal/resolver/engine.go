// Package resolver builds the curriculum tree of degree programmes from the
// catalog's rule graph.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"sisu-catalog/internal/concurrency"
	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/extract"
)

var (
	ErrBootstrap         = errors.New("programme search returned no usable results")
	ErrProgrammeNotFound = errors.New("programme not found in catalog")
	ErrNoFanOut          = errors.New("rule chain has no rules array")
)

const (
	DefaultMaxWorkers   = 8
	DefaultMaxRuleDepth = 32
)

// Catalog is the subset of the catalog client the engine needs. Each call
// returns the decoded JSON response, or nil when there is no data.
type Catalog interface {
	SearchProgrammes(ctx context.Context) any
	ModulesByGroupID(ctx context.Context, groupIDs []string) any
	CourseUnitsByGroupID(ctx context.Context, groupIDs []string) any
}

type Options struct {
	Logger *slog.Logger
	// MaxWorkers bounds the concurrent branches of one rule set.
	MaxWorkers int
	// MaxRuleDepth bounds how many nested "rule" objects are followed
	// looking for a "rules" array.
	MaxRuleDepth int
}

// Engine owns the programme index. It is safe for concurrent use.
type Engine struct {
	catalog  Catalog
	logger   *slog.Logger
	pool     concurrency.ParallelOptions
	maxDepth int

	mu         sync.RWMutex
	programmes map[domain.ID]*domain.DegreeProgramme

	stateMu  sync.Mutex
	locks    map[domain.ID]*sync.Mutex
	resolved map[domain.ID]bool
}

func New(catalog Catalog, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if opts.MaxRuleDepth <= 0 {
		opts.MaxRuleDepth = DefaultMaxRuleDepth
	}
	return &Engine{
		catalog:    catalog,
		logger:     opts.Logger,
		pool:       concurrency.ParallelOptions{MaxWorkers: opts.MaxWorkers},
		maxDepth:   opts.MaxRuleDepth,
		programmes: map[domain.ID]*domain.DegreeProgramme{},
		locks:      map[domain.ID]*sync.Mutex{},
		resolved:   map[domain.ID]bool{},
	}
}

// LoadProgrammes runs the programme search and indexes every programme by
// id. Entries that fail extraction are skipped. When the response itself is
// unusable the index is left as it was and ErrBootstrap is returned.
func (e *Engine) LoadProgrammes(ctx context.Context) error {
	raw := e.catalog.SearchProgrammes(ctx)
	obj, ok := raw.(map[string]any)
	if !ok {
		e.logger.Error("programme search failed", "error", ErrBootstrap)
		return ErrBootstrap
	}
	results, ok := obj["searchResults"].([]any)
	if !ok {
		e.logger.Error("programme search has no searchResults array", "error", ErrBootstrap)
		return ErrBootstrap
	}

	index := make(map[domain.ID]*domain.DegreeProgramme, len(results))
	for i, entry := range results {
		if entry == nil {
			continue
		}
		rec, ok := entry.(map[string]any)
		if !ok {
			e.logger.Warn("programme entry skipped", "index", i, "error", extract.ErrWrongShape)
			continue
		}
		info, err := extract.Info(rec, domain.KindDegreeProgramme)
		if err != nil {
			e.logger.Warn("programme entry skipped", "index", i, "error", err)
			continue
		}
		index[info.ID] = domain.NewDegreeProgramme(info)
	}

	e.mu.Lock()
	e.programmes = index
	e.mu.Unlock()

	e.stateMu.Lock()
	e.resolved = map[domain.ID]bool{}
	e.stateMu.Unlock()

	e.logger.Info("programmes loaded", "count", len(index))
	return nil
}

// Programmes lists every indexed programme sorted by name.
func (e *Engine) Programmes() []*domain.DegreeProgramme {
	e.mu.RLock()
	out := make([]*domain.DegreeProgramme, 0, len(e.programmes))
	for _, p := range e.programmes {
		out = append(out, p)
	}
	e.mu.RUnlock()

	domain.SortByName(out)
	return out
}

func (e *Engine) Programme(id domain.ID) (*domain.DegreeProgramme, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.programmes[id]
	return p, ok
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.programmes)
}

// Resolve fetches the programme's full record and walks its rule graph,
// attaching every study module and course unit it finds. Branches that
// fail are logged and left out; only a failure to read the programme
// record itself is returned. Calls for the same programme are serialized.
func (e *Engine) Resolve(ctx context.Context, p *domain.DegreeProgramme) error {
	if p == nil {
		return ErrProgrammeNotFound
	}
	lock := e.lockFor(p.Key())
	lock.Lock()
	defer lock.Unlock()

	if err := e.resolve(ctx, p); err != nil {
		return err
	}
	e.stateMu.Lock()
	e.resolved[p.Key()] = true
	e.stateMu.Unlock()
	return nil
}

// EnsureResolved resolves p unless an earlier call already succeeded.
func (e *Engine) EnsureResolved(ctx context.Context, p *domain.DegreeProgramme) error {
	if p == nil {
		return ErrProgrammeNotFound
	}
	if e.Resolved(p.Key()) {
		return nil
	}
	lock := e.lockFor(p.Key())
	lock.Lock()
	defer lock.Unlock()

	// someone else may have finished while we waited
	if e.Resolved(p.Key()) {
		return nil
	}
	if err := e.resolve(ctx, p); err != nil {
		return err
	}
	e.stateMu.Lock()
	e.resolved[p.Key()] = true
	e.stateMu.Unlock()
	return nil
}

func (e *Engine) Resolved(id domain.ID) bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.resolved[id]
}

func (e *Engine) resolve(ctx context.Context, p *domain.DegreeProgramme) error {
	current := p.Info()
	log := e.logger.With("run", uuid.NewString(), "programme", current.ID)
	log.Info("resolve started", "groupId", current.GroupID)

	raw := e.catalog.ModulesByGroupID(ctx, []string{string(current.GroupID)})
	record, ok := firstRecord(raw)
	if !ok {
		log.Warn("programme record missing", "error", ErrProgrammeNotFound)
		return fmt.Errorf("resolve %s: %w", current.ID, ErrProgrammeNotFound)
	}

	info, err := extract.Info(record, domain.KindDegreeProgramme)
	if err != nil {
		log.Warn("programme record unreadable", "error", err)
		return fmt.Errorf("resolve %s: %w", current.ID, err)
	}
	if info.ID != current.ID {
		log.Info("programme record has a different id, keeping indexed one", "recordId", info.ID)
	}

	rules, err := e.fanOut(record)
	if err != nil {
		log.Warn("programme has no rules", "error", err)
		return fmt.Errorf("resolve %s: %w", current.ID, err)
	}

	p.Refresh(info)

	w := &walk{
		engine:    e,
		programme: p,
		log:       log,
		completed: completedIDs(p),
	}
	w.resolveRules(ctx, rules, nil, []domain.ID{current.GroupID})

	log.Info("resolve finished",
		"modules", w.modules.Load(),
		"courses", w.courses.Load(),
		"dropped", w.dropped.Load(),
	)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("resolve %s: %w", current.ID, err)
	}
	return nil
}

func (e *Engine) lockFor(id domain.ID) *sync.Mutex {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}

// fanOut follows record.rule(.rule)* until it finds an object carrying a
// "rules" array.
func (e *Engine) fanOut(record map[string]any) ([]any, error) {
	node, ok := record["rule"].(map[string]any)
	for depth := 0; ok; depth++ {
		if rules, has := node["rules"]; has {
			// "rules": null is an empty rule set
			if rules == nil {
				return []any{}, nil
			}
			arr, ok := rules.([]any)
			if !ok {
				return nil, fmt.Errorf("rules: %w", extract.ErrWrongShape)
			}
			return arr, nil
		}
		if depth >= e.maxDepth {
			return nil, fmt.Errorf("deeper than %d: %w", e.maxDepth, ErrNoFanOut)
		}
		node, ok = node["rule"].(map[string]any)
	}
	return nil, ErrNoFanOut
}

func firstRecord(raw any) (map[string]any, bool) {
	arr, ok := raw.([]any)
	if !ok || len(arr) == 0 {
		return nil, false
	}
	rec, ok := arr[0].(map[string]any)
	return rec, ok
}

// completedIDs remembers progress marks so a rebuilt tree keeps them.
func completedIDs(p *domain.DegreeProgramme) map[domain.ID]bool {
	done := map[domain.ID]bool{}
	for _, c := range p.AllCourseUnits() {
		if c.Completed() {
			done[c.Key()] = true
		}
	}
	return done
}
