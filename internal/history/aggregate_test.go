package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evaladmin/internal/model"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func likert(qid, section, answer string, opts ...string) model.Response {
	return model.Response{QuestionID: qid, QuestionText: "Q " + qid, QuestionType: model.QuestionLikert, Options: opts, Section: section, Answer: answer}
}

func text(qid, section, answer string) model.Response {
	return model.Response{QuestionID: qid, QuestionText: "Q " + qid, QuestionType: model.QuestionText, Section: section, Answer: answer}
}

func submitted(rs ...model.Response) model.Submission {
	return model.Submission{Status: model.SubmissionSubmitted, Responses: rs}
}

func TestAggregate_tree(t *testing.T) {
	entries := []model.HistoryEntry{
		{
			ID: "p1", StartDate: date(2023, time.August, 1), EndDate: date(2023, time.December, 15),
			ProfessorEvaluations: []model.ProfessorEvaluation{
				{ProfessorID: "b", ProfessorName: "Bautista", DepartmentName: "CCS", Evaluations: []model.Submission{submitted(likert("q1", "A. Instructional Competence", "Agree"))}},
				{ProfessorID: "a", ProfessorName: "Abad", DepartmentName: "CCS"},
				{ProfessorID: "c", ProfessorName: "Cruz", DepartmentName: ""},
			},
		},
		{ID: "p0", StartDate: date(2023, time.January, 10), EndDate: date(2023, time.May, 30)},
		{ID: "p2", StartDate: date(2024, time.January, 8), EndDate: date(2024, time.May, 30)},
	}

	tree := Aggregate(entries)

	require.Len(t, tree.Years, 2)
	assert.Equal(t, 2024, tree.Years[0].Year)
	y2023, ok := tree.Year(2023)
	require.True(t, ok)
	require.Len(t, y2023.Periods, 2)
	assert.Equal(t, "p1", y2023.Periods[0].ID, "newest period first")

	p1, ok := y2023.Period("p1")
	require.True(t, ok)
	require.Len(t, p1.Departments, 2)
	assert.Equal(t, "CCS", p1.Departments[0].Name)
	assert.Equal(t, UnassignedDepartment, p1.Departments[1].Name)

	ccs, ok := p1.Department("ccs")
	require.True(t, ok)
	require.Len(t, ccs.Professors, 2)
	assert.Equal(t, "Abad", ccs.Professors[0].Name)

	b, ok := ccs.Professor("b")
	require.True(t, ok)
	assert.Equal(t, 1, b.EvaluationCount)
	q1, ok := b.Question("q1")
	require.True(t, ok)
	assert.Equal(t, 1, q1.Counts["Agree"])
}

func TestAggregate_draftsExcluded(t *testing.T) {
	entries := []model.HistoryEntry{{
		ID: "p", StartDate: date(2024, time.March, 1),
		ProfessorEvaluations: []model.ProfessorEvaluation{{
			ProfessorID: "x", DepartmentName: "CAS",
			Evaluations: []model.Submission{{Status: model.SubmissionDraft, Responses: []model.Response{likert("q1", "", "Agree")}}},
		}},
	}}

	prof, ok := mustProfessor(t, Aggregate(entries), 2024, "p", "CAS", "x")
	require.True(t, ok)
	assert.Empty(t, prof.Questions)
	assert.Zero(t, prof.EvaluationCount)
}

func TestAggregate_likertAndText(t *testing.T) {
	custom := []string{"Always", "Sometimes", "Never"}
	entries := []model.HistoryEntry{{
		ID: "p", StartDate: date(2024, time.March, 1),
		ProfessorEvaluations: []model.ProfessorEvaluation{{
			ProfessorID: "x", DepartmentName: "CAS",
			Evaluations: []model.Submission{
				submitted(likert("q1", "", "agree"), likert("q2", "Research", "Always", custom...), text("q3", "Comments", "  Great teacher ")),
				submitted(likert("q1", "", "Strongly Agree"), likert("q2", "Research", "Never", custom...), text("q3", "Comments", "   ")),
				submitted(likert("q1", "", "Agree"), likert("q2", "Research", "Rarely", custom...)),
				{Status: "submitted", Responses: []model.Response{text("q3", "Comments", "Very patient")}},
			},
		}},
	}}

	prof, ok := mustProfessor(t, Aggregate(entries), 2024, "p", "CAS", "x")
	require.True(t, ok)
	assert.Equal(t, 4, prof.EvaluationCount)

	q1, _ := prof.Question("q1")
	assert.Equal(t, model.DefaultLikertScale, q1.Options)
	assert.Equal(t, OtherSection, q1.Section)
	assert.Equal(t, []ChartPoint{
		{Option: "Strongly Agree", Count: 1},
		{Option: "Agree", Count: 2},
		{Option: "Disagree", Count: 0},
		{Option: "Strongly Disagree", Count: 0},
	}, q1.Chart())

	q2, _ := prof.Question("q2")
	assert.Equal(t, []string{"Always", "Sometimes", "Never", "Rarely"}, q2.Options)
	assert.Equal(t, 1, q2.Counts["Rarely"])

	q3, _ := prof.Question("q3")
	assert.True(t, q3.IsText())
	assert.Nil(t, q3.Chart())
	assert.Equal(t, []string{"Great teacher", "Very patient"}, q3.TextResponses)
	assert.Equal(t, 2, q3.Responses)
}

func TestAggregate_sectionFromFirstResponse(t *testing.T) {
	entries := []model.HistoryEntry{{
		ID: "p", StartDate: date(2024, time.March, 1),
		ProfessorEvaluations: []model.ProfessorEvaluation{{
			ProfessorID: "x", DepartmentName: "CAS",
			Evaluations: []model.Submission{
				submitted(likert("q1", "B. Classroom Management", "Agree")),
				submitted(likert("q1", "Professionalism", "Agree")),
			},
		}},
	}}
	prof, _ := mustProfessor(t, Aggregate(entries), 2024, "p", "CAS", "x")
	q1, _ := prof.Question("q1")
	assert.Equal(t, "B. Classroom Management", q1.Section)
}

func mustProfessor(t *testing.T, tree Tree, year int, period, dept, prof string) (ProfessorNode, bool) {
	t.Helper()
	y, ok := tree.Year(year)
	require.True(t, ok, "year")
	p, ok := y.Period(period)
	require.True(t, ok, "period")
	d, ok := p.Department(dept)
	require.True(t, ok, "department")
	return d.Professor(prof)
}
