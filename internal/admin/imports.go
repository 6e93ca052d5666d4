package admin

import (
	"context"

	"go.uber.org/zap"

	"evaladmin/internal/dedup"
	"evaladmin/internal/importer"
	"evaladmin/internal/model"
	"evaladmin/internal/spreadsheet"
)

// maxWarnings is how many parse warnings an import response lists before
// collapsing the rest into "+N more".
const maxWarnings = 10

// ImportResult is the response to an import. A dry run stops after
// classification; otherwise Summary and Message describe what was written.
type ImportResult struct {
	dedup.Preview
	Kind     model.Kind        `json:"kind"`
	DryRun   bool              `json:"dryRun"`
	Rows     any               `json:"rows"`
	Warnings []string          `json:"warnings"`
	Summary  *importer.Summary `json:"summary,omitempty"`
	Message  string            `json:"message,omitempty"`
}

func newImportResult[T any](kind model.Kind, res dedup.Result[T], warnings []string, dryRun bool) ImportResult {
	if warnings == nil {
		warnings = []string{}
	}
	return ImportResult{
		Preview:  res.Preview(),
		Kind:     kind,
		DryRun:   dryRun,
		Rows:     res.Rows,
		Warnings: spreadsheet.CapWarnings(warnings, maxWarnings),
	}
}

// ImportProfessors classifies the sheet against stored professors by email
// and, unless dryRun, creates the new ones.
func (s *Service) ImportProfessors(ctx context.Context, sheet spreadsheet.ProfessorSheet, dryRun bool) (ImportResult, error) {
	existing, err := s.professors.GetAll(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	res := dedup.Classify(sheet.Records, dedup.KeysOf(existing, dedup.ProfessorKeys), dedup.ParsedProfessorKeys)
	out := newImportResult(model.KindProfessor, res, sheet.Warnings, dryRun)
	if dryRun {
		return out, nil
	}

	opts := runOpts(s, len(res.Duplicates), func(p model.ParsedProfessor) string { return p.Email })
	opts.OnProgress = s.progressLogger("professors")
	sum := importer.Run(ctx, res.New, func(ctx context.Context, rec model.ParsedProfessor) error {
		p := rec.Professor()
		return s.persistProfessor(ctx, &p)
	}, opts)

	if sum.Success > 0 {
		depts := make([]string, 0, len(res.New))
		for _, p := range res.New {
			depts = append(depts, p.DepartmentName)
		}
		s.ensureDepartments(context.WithoutCancel(ctx), depts)
	}
	return s.finishImport(out, sum, "professor", "professors"), nil
}

// ImportStudents classifies the sheet against stored students by email and
// derived student id and, unless dryRun, creates the new ones.
func (s *Service) ImportStudents(ctx context.Context, sheet spreadsheet.StudentSheet, dryRun bool) (ImportResult, error) {
	existing, err := s.students.GetAll(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	res := dedup.Classify(sheet.Records, dedup.KeysOf(existing, dedup.StudentKeys), dedup.ParsedStudentKeys)
	out := newImportResult(model.KindStudent, res, sheet.Warnings, dryRun)
	if dryRun {
		return out, nil
	}

	opts := runOpts(s, len(res.Duplicates), func(st model.ParsedStudent) string { return st.Email })
	opts.OnProgress = s.progressLogger("students")
	sum := importer.Run(ctx, res.New, func(ctx context.Context, rec model.ParsedStudent) error {
		_, err := s.students.Create(ctx, rec.Student())
		return err
	}, opts)
	return s.finishImport(out, sum, "student", "students"), nil
}

// ImportQuestions classifies the sheet against stored question texts and,
// unless dryRun, creates one row per teaching professor for every new
// question. Summary totals count those rows.
func (s *Service) ImportQuestions(ctx context.Context, sheet spreadsheet.QuestionSheet, dryRun bool) (ImportResult, error) {
	existing, err := s.questions.GetAll(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	res := dedup.Classify(sheet.Records, dedup.KeysOf(existing, dedup.QuestionKeys), dedup.ParsedQuestionKeys)
	out := newImportResult(model.KindQuestion, res, sheet.Warnings, dryRun)
	if dryRun {
		return out, nil
	}

	var payloads []model.EvaluationQuestion
	if len(res.New) > 0 {
		profs, err := s.teachingProfessors(ctx)
		if err != nil {
			return ImportResult{}, err
		}
		payloads = importer.CrossProduct(profs, res.New, questionFor)
	}
	sum := s.persistQuestions(ctx, payloads, len(res.Duplicates))
	return s.finishImport(out, sum, "question", "questions"), nil
}

func (s *Service) finishImport(out ImportResult, sum importer.Summary, singular, plural string) ImportResult {
	s.metrics.RecordImport(plural, sum.Success, sum.Skipped, sum.Failed())
	s.log.Info("import finished",
		zap.String("kind", plural),
		zap.Int("total", sum.Total),
		zap.Int("success", sum.Success),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed()),
	)
	out.Summary = &sum
	out.Message = sum.Message(singular, plural)
	return out
}

func (s *Service) progressLogger(kind string) func(current, total int) {
	return func(current, total int) {
		s.log.Debug("import progress", zap.String("kind", kind), zap.Int("current", current), zap.Int("total", total))
	}
}
