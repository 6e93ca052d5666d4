// Package history turns closed evaluation periods into the drill-down tree
// browsed by administrators: year, period, department, professor, and at the
// leaf the per-question response tallies used for charts.
package history

import (
	"sort"
	"strings"
	"time"

	"evaladmin/internal/model"
	"evaladmin/internal/textnorm"
)

const (
	UnassignedDepartment = "Unassigned"
	OtherSection         = "Other"
	CommentsSection      = "Comments"
)

type Tree struct {
	Years []YearNode `json:"years"`
}

type YearNode struct {
	Year    int          `json:"year"`
	Periods []PeriodNode `json:"periods"`
}

type PeriodNode struct {
	ID          string           `json:"id"`
	StartDate   time.Time        `json:"startDate"`
	EndDate     time.Time        `json:"endDate"`
	Departments []DepartmentNode `json:"departments"`
}

type DepartmentNode struct {
	Name       string          `json:"name"`
	Professors []ProfessorNode `json:"professors"`
}

type ProfessorNode struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	EvaluationCount int                 `json:"evaluationCount"`
	Questions       []QuestionAggregate `json:"questions"`
}

// QuestionAggregate tallies the responses to one question. Likert questions
// fill Counts (keyed by Options); free-text questions fill TextResponses.
type QuestionAggregate struct {
	QuestionID    string         `json:"questionId"`
	QuestionText  string         `json:"questionText"`
	QuestionType  string         `json:"questionType"`
	Section       string         `json:"section"`
	Options       []string       `json:"options,omitempty"`
	Counts        map[string]int `json:"counts,omitempty"`
	TextResponses []string       `json:"textResponses,omitempty"`
	Responses     int            `json:"responses"`
}

// IsText reports whether the aggregate collects verbatim answers.
func (q QuestionAggregate) IsText() bool { return q.Counts == nil }

// ChartPoint is one bar of a Likert distribution.
type ChartPoint struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

// Chart returns the Likert distribution in option order. Text questions have
// no chart.
func (q QuestionAggregate) Chart() []ChartPoint {
	if q.IsText() {
		return nil
	}
	pts := make([]ChartPoint, 0, len(q.Options))
	for _, opt := range q.Options {
		pts = append(pts, ChartPoint{Option: opt, Count: q.Counts[opt]})
	}
	return pts
}

func (t Tree) Year(year int) (YearNode, bool) {
	for _, y := range t.Years {
		if y.Year == year {
			return y, true
		}
	}
	return YearNode{}, false
}

func (y YearNode) Period(id string) (PeriodNode, bool) {
	for _, p := range y.Periods {
		if p.ID == id {
			return p, true
		}
	}
	return PeriodNode{}, false
}

func (p PeriodNode) Department(name string) (DepartmentNode, bool) {
	for _, d := range p.Departments {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return DepartmentNode{}, false
}

func (d DepartmentNode) Professor(id string) (ProfessorNode, bool) {
	for _, p := range d.Professors {
		if p.ID == id {
			return p, true
		}
	}
	return ProfessorNode{}, false
}

// Question looks up an aggregate by question id.
func (p ProfessorNode) Question(id string) (QuestionAggregate, bool) {
	for _, q := range p.Questions {
		if q.QuestionID == id {
			return q, true
		}
	}
	return QuestionAggregate{}, false
}

type profAcc struct {
	node  ProfessorNode
	index map[string]int
}

type deptAcc struct {
	name  string
	profs map[string]*profAcc
}

type periodAcc struct {
	node  PeriodNode
	depts map[string]*deptAcc
}

// Aggregate groups history entries into a Tree. Only submitted evaluations
// contribute to counts and question tallies; drafts are ignored entirely.
func Aggregate(entries []model.HistoryEntry) Tree {
	years := make(map[int]map[string]*periodAcc)

	for _, e := range entries {
		y := e.StartDate.Year()
		if years[y] == nil {
			years[y] = make(map[string]*periodAcc)
		}
		pa := years[y][e.ID]
		if pa == nil {
			pa = &periodAcc{
				node:  PeriodNode{ID: e.ID, StartDate: e.StartDate, EndDate: e.EndDate},
				depts: make(map[string]*deptAcc),
			}
			years[y][e.ID] = pa
		}

		for _, pe := range e.ProfessorEvaluations {
			deptName := strings.TrimSpace(pe.DepartmentName)
			if deptName == "" {
				deptName = UnassignedDepartment
			}
			dkey := strings.ToLower(deptName)
			da := pa.depts[dkey]
			if da == nil {
				da = &deptAcc{name: deptName, profs: make(map[string]*profAcc)}
				pa.depts[dkey] = da
			}
			prof := da.profs[pe.ProfessorID]
			if prof == nil {
				prof = &profAcc{
					node:  ProfessorNode{ID: pe.ProfessorID, Name: pe.ProfessorName, Questions: []QuestionAggregate{}},
					index: make(map[string]int),
				}
				da.profs[pe.ProfessorID] = prof
			}
			for _, sub := range pe.Evaluations {
				if !sub.Submitted() {
					continue
				}
				prof.node.EvaluationCount++
				for _, r := range sub.Responses {
					prof.add(r)
				}
			}
		}
	}

	return build(years)
}

func (pa *profAcc) add(r model.Response) {
	i, ok := pa.index[r.QuestionID]
	if !ok {
		pa.node.Questions = append(pa.node.Questions, newAggregate(r))
		i = len(pa.node.Questions) - 1
		pa.index[r.QuestionID] = i
	}
	q := &pa.node.Questions[i]

	answer := strings.TrimSpace(r.Answer)
	if answer == "" {
		return
	}
	q.Responses++
	if q.IsText() {
		q.TextResponses = append(q.TextResponses, answer)
		return
	}
	for _, opt := range q.Options {
		if strings.EqualFold(opt, answer) {
			q.Counts[opt]++
			return
		}
	}
	q.Options = append(q.Options, answer)
	q.Counts[answer] = 1
}

func newAggregate(r model.Response) QuestionAggregate {
	section := strings.TrimSpace(r.Section)
	if section == "" {
		section = OtherSection
	}
	q := QuestionAggregate{
		QuestionID:   r.QuestionID,
		QuestionText: r.QuestionText,
		QuestionType: r.QuestionType,
		Section:      section,
	}
	if isLikert(r) && !textnorm.SectionMatches(section, CommentsSection) {
		opts := r.Options
		if len(opts) == 0 {
			opts = model.DefaultLikertScale
		}
		q.Options = append([]string(nil), opts...)
		q.Counts = make(map[string]int, len(opts))
		for _, o := range q.Options {
			q.Counts[o] = 0
		}
	}
	return q
}

func isLikert(r model.Response) bool {
	switch {
	case strings.EqualFold(r.QuestionType, model.QuestionText):
		return false
	case strings.EqualFold(r.QuestionType, model.QuestionLikert):
		return true
	}
	return len(r.Options) > 0
}

func build(years map[int]map[string]*periodAcc) Tree {
	tree := Tree{Years: make([]YearNode, 0, len(years))}
	for y, periods := range years {
		yn := YearNode{Year: y, Periods: make([]PeriodNode, 0, len(periods))}
		for _, pa := range periods {
			pn := pa.node
			pn.Departments = make([]DepartmentNode, 0, len(pa.depts))
			for _, da := range pa.depts {
				dn := DepartmentNode{Name: da.name, Professors: make([]ProfessorNode, 0, len(da.profs))}
				for _, prof := range da.profs {
					dn.Professors = append(dn.Professors, prof.node)
				}
				sort.Slice(dn.Professors, func(i, j int) bool {
					a, b := dn.Professors[i], dn.Professors[j]
					if a.Name != b.Name {
						return a.Name < b.Name
					}
					return a.ID < b.ID
				})
				pn.Departments = append(pn.Departments, dn)
			}
			sort.Slice(pn.Departments, func(i, j int) bool { return pn.Departments[i].Name < pn.Departments[j].Name })
			yn.Periods = append(yn.Periods, pn)
		}
		sort.Slice(yn.Periods, func(i, j int) bool {
			a, b := yn.Periods[i], yn.Periods[j]
			if !a.StartDate.Equal(b.StartDate) {
				return a.StartDate.After(b.StartDate)
			}
			return a.ID < b.ID
		})
		tree.Years = append(tree.Years, yn)
	}
	sort.Slice(tree.Years, func(i, j int) bool { return tree.Years[i].Year > tree.Years[j].Year })
	return tree
}
