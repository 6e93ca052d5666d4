package admin

import (
	"context"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"evaladmin/internal/apperr"
	"evaladmin/internal/history"
)

const historyCacheKey = "evaladmin:history:tree"

// HistoryTree returns the aggregated history, served from the cache while it
// is fresh. Cache failures fall back to a fresh aggregation.
func (s *Service) HistoryTree(ctx context.Context) (history.Tree, error) {
	if raw, ok, err := s.cache.Get(ctx, historyCacheKey); err != nil {
		s.log.Warn("history cache read failed", zap.Error(err))
	} else if ok {
		var tree history.Tree
		if err := sonic.Unmarshal(raw, &tree); err == nil {
			s.metrics.CacheResult(true)
			return tree, nil
		}
	}
	s.metrics.CacheResult(false)

	entries, err := s.history.GetAll(ctx)
	if err != nil {
		return history.Tree{}, err
	}
	tree := history.Aggregate(entries)
	if raw, err := sonic.Marshal(tree); err == nil {
		if err := s.cache.Set(ctx, historyCacheKey, raw, s.historyTTL); err != nil {
			s.log.Warn("history cache write failed", zap.Error(err))
		}
	}
	return tree, nil
}

// ProfessorReport is the leaf of the drill-down: one professor in one
// period, with questions grouped into ordered sections.
type ProfessorReport struct {
	Year       int                    `json:"year"`
	PeriodID   string                 `json:"periodId"`
	Department string                 `json:"department"`
	Professor  history.ProfessorNode  `json:"professor"`
	Sections   []history.SectionGroup `json:"sections"`
}

func (s *Service) ProfessorHistory(ctx context.Context, year int, periodID, department, professorID string) (ProfessorReport, error) {
	tree, err := s.HistoryTree(ctx)
	if err != nil {
		return ProfessorReport{}, err
	}
	y, ok := tree.Year(year)
	if !ok {
		return ProfessorReport{}, apperr.ErrNotFound
	}
	p, ok := y.Period(periodID)
	if !ok {
		return ProfessorReport{}, apperr.ErrNotFound
	}
	d, ok := p.Department(department)
	if !ok {
		return ProfessorReport{}, apperr.ErrNotFound
	}
	prof, ok := d.Professor(professorID)
	if !ok {
		return ProfessorReport{}, apperr.ErrNotFound
	}
	return ProfessorReport{
		Year:       year,
		PeriodID:   p.ID,
		Department: d.Name,
		Professor:  prof,
		Sections:   history.Sections(prof),
	}, nil
}
