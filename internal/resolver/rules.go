package resolver

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"

	"sisu-catalog/internal/concurrency"
	"sisu-catalog/internal/domain"
	"sisu-catalog/internal/extract"
)

const (
	ruleModule     = "ModuleRule"
	ruleCourseUnit = "CourseUnitRule"
	ruleComposite  = "CompositeRule"
)

// walk is the state of one Resolve call.
type walk struct {
	engine    *Engine
	programme *domain.DegreeProgramme
	log       *slog.Logger
	completed map[domain.ID]bool

	modules atomic.Int64
	courses atomic.Int64
	dropped atomic.Int64
}

type ruleSet struct {
	moduleGroupIDs []string
	courseGroupIDs []string
	composites     [][]any
}

func (w *walk) partition(rules []any) ruleSet {
	var rs ruleSet
	for _, r := range rules {
		obj, ok := r.(map[string]any)
		if !ok {
			w.log.Debug("rule ignored", "error", extract.ErrWrongShape)
			continue
		}
		switch typ, _ := obj["type"].(string); typ {
		case ruleModule:
			if id, _ := obj["moduleGroupId"].(string); id != "" {
				rs.moduleGroupIDs = append(rs.moduleGroupIDs, id)
				continue
			}
		case ruleCourseUnit:
			if id, _ := obj["courseUnitGroupId"].(string); id != "" {
				rs.courseGroupIDs = append(rs.courseGroupIDs, id)
				continue
			}
		case ruleComposite:
			if sub, ok := obj["rules"].([]any); ok {
				rs.composites = append(rs.composites, sub)
				continue
			}
		default:
			w.log.Debug("rule ignored", "type", typ)
			continue
		}
		w.log.Debug("malformed rule ignored", "type", obj["type"])
	}
	return rs
}

// resolveRules handles one rule set. Modules and courses it references are
// fetched in one batched query each; those batches and the composite
// branches run concurrently. parent is nil at programme level.
func (w *walk) resolveRules(ctx context.Context, rules []any, parent *domain.StudyModule, ancestors []domain.ID) {
	if ctx.Err() != nil {
		return
	}
	rs := w.partition(rules)

	var tasks []func(context.Context)
	if len(rs.moduleGroupIDs) > 0 {
		ids := rs.moduleGroupIDs
		tasks = append(tasks, func(ctx context.Context) {
			w.resolveModules(ctx, ids, parent, ancestors)
		})
	}
	if len(rs.courseGroupIDs) > 0 {
		if parent == nil {
			w.log.Warn("course rules outside any study module discarded", "groupIds", rs.courseGroupIDs)
			w.dropped.Add(int64(len(rs.courseGroupIDs)))
		} else {
			ids := rs.courseGroupIDs
			tasks = append(tasks, func(ctx context.Context) {
				w.resolveCourses(ctx, ids, parent)
			})
		}
	}
	for _, sub := range rs.composites {
		tasks = append(tasks, func(ctx context.Context) {
			w.resolveRules(ctx, sub, parent, ancestors)
		})
	}

	if len(tasks) == 1 {
		tasks[0](ctx)
		return
	}
	concurrency.ForEach(ctx, tasks, w.engine.pool, func(ctx context.Context, _ int, task func(context.Context)) error {
		task(ctx)
		return nil
	})
}

func (w *walk) resolveModules(ctx context.Context, groupIDs []string, parent *domain.StudyModule, ancestors []domain.ID) {
	records, ok := w.engine.catalog.ModulesByGroupID(ctx, groupIDs).([]any)
	if !ok {
		w.log.Warn("module lookup returned no data", "groupIds", groupIDs, "parent", parentID(parent))
		w.dropped.Add(int64(len(groupIDs)))
		return
	}

	built, _ := concurrency.ProcessParallel(ctx, records, w.engine.pool, func(ctx context.Context, _ int, raw any) (*domain.StudyModule, error) {
		m, _ := w.buildModule(ctx, raw, parent, ancestors)
		return m, nil
	})
	for _, m := range built {
		if m == nil {
			w.dropped.Add(1)
			continue
		}
		if parent == nil {
			w.programme.AddStudyModule(m)
		} else {
			parent.AddChild(m)
		}
		w.modules.Add(1)
	}
}

func (w *walk) buildModule(ctx context.Context, raw any, parent *domain.StudyModule, ancestors []domain.ID) (*domain.StudyModule, bool) {
	rec, ok := raw.(map[string]any)
	if !ok {
		w.log.Warn("study module skipped", "parent", parentID(parent), "error", extract.ErrWrongShape)
		return nil, false
	}
	info, err := extract.Info(rec, domain.KindStudyModule)
	if err != nil {
		w.log.Warn("study module skipped", "parent", parentID(parent), "error", err)
		return nil, false
	}
	if slices.Contains(ancestors, info.GroupID) {
		w.log.Warn("study module cycle skipped", "module", info.ID, "groupId", info.GroupID)
		return nil, false
	}
	rules, err := w.engine.fanOut(rec)
	if err != nil {
		w.log.Warn("study module skipped", "module", info.ID, "error", err)
		return nil, false
	}

	m := domain.NewStudyModule(info)
	path := append(slices.Clone(ancestors), info.GroupID)
	w.resolveRules(ctx, rules, m, path)
	return m, true
}

func (w *walk) resolveCourses(ctx context.Context, groupIDs []string, parent *domain.StudyModule) {
	records, ok := w.engine.catalog.CourseUnitsByGroupID(ctx, groupIDs).([]any)
	if !ok {
		w.log.Warn("course lookup returned no data", "groupIds", groupIDs, "module", parent.Key())
		w.dropped.Add(int64(len(groupIDs)))
		return
	}

	for _, raw := range records {
		rec, ok := raw.(map[string]any)
		if !ok {
			w.dropped.Add(1)
			continue
		}
		info, err := extract.Info(rec, domain.KindCourseUnit)
		if err != nil {
			w.log.Warn("course unit skipped", "module", parent.Key(), "error", err)
			w.dropped.Add(1)
			continue
		}
		c := domain.NewCourseUnit(info)
		if w.completed[c.Key()] {
			c.SetCompleted(true)
		}
		parent.AddCourseUnit(c)
		w.courses.Add(1)
	}
}

func parentID(m *domain.StudyModule) domain.ID {
	if m == nil {
		return ""
	}
	return m.Key()
}
