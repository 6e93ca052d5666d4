package admin

import (
	"context"
	"errors"
	"strings"

	"evaladmin/internal/apperr"
	"evaladmin/internal/importer"
	"evaladmin/internal/model"
	"evaladmin/internal/textnorm"
)

// QuestionInput is the payload for creating or editing a question.
type QuestionInput struct {
	QuestionText string   `json:"questionText" validate:"required"`
	QuestionType string   `json:"questionType" validate:"required,oneof='Likert Scale' text"`
	Options      []string `json:"options"`
	Section      string   `json:"section"`
	Weight       string   `json:"weight" validate:"omitempty,numeric"`
	IsActive     *bool    `json:"isActive"`
}

func (in QuestionInput) parsed() model.ParsedQuestion {
	q := model.ParsedQuestion{
		QuestionText: strings.TrimSpace(in.QuestionText),
		QuestionType: in.QuestionType,
		Section:      strings.TrimSpace(in.Section),
		Weight:       strings.TrimSpace(in.Weight),
	}
	for _, o := range in.Options {
		if o = strings.TrimSpace(o); o != "" {
			q.Options = append(q.Options, o)
		}
	}
	switch q.QuestionType {
	case model.QuestionLikert:
		if len(q.Options) == 0 {
			q.Options = append([]string(nil), model.DefaultLikertScale...)
		}
	case model.QuestionText:
		q.Options = nil
	}
	if q.Section == "" {
		q.Section = "Other"
	}
	return q
}

// QuestionGroup is one logical question: every per-professor row sharing a
// normalized text.
type QuestionGroup struct {
	Key          string   `json:"key"`
	QuestionText string   `json:"questionText"`
	QuestionType string   `json:"questionType"`
	Options      []string `json:"options,omitempty"`
	Section      string   `json:"section"`
	Weight       string   `json:"weight,omitempty"`
	IsActive     bool     `json:"isActive"`
	Professors   int      `json:"professors"`
	IDs          []string `json:"ids"`
}

// ListQuestions groups question rows by normalized text, in first-seen order.
// The first row of a group supplies its display fields.
func (s *Service) ListQuestions(ctx context.Context) ([]QuestionGroup, error) {
	rows, err := s.questions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	index := map[string]int{}
	var out []QuestionGroup
	for _, q := range rows {
		key := textnorm.Normalize(q.QuestionText)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			out = append(out, QuestionGroup{
				Key:          key,
				QuestionText: q.QuestionText,
				QuestionType: q.QuestionType,
				Options:      q.Options,
				Section:      q.Section,
				Weight:       q.Weight,
				IsActive:     q.IsActive,
			})
			i = len(out) - 1
			index[key] = i
		}
		out[i].Professors++
		out[i].IDs = append(out[i].IDs, q.ID)
	}
	return out, nil
}

// CreateQuestion adds the question to every teaching professor.
func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (importer.Summary, error) {
	if err := check(in); err != nil {
		return importer.Summary{}, err
	}
	rows, err := s.questions.GetAll(ctx)
	if err != nil {
		return importer.Summary{}, err
	}
	key := textnorm.Normalize(in.QuestionText)
	for _, q := range rows {
		if textnorm.Normalize(q.QuestionText) == key {
			return importer.Summary{}, apperr.NewValidationError("this question already exists",
				apperr.FieldError{Field: "questionText", Error: "already exists"})
		}
	}
	profs, err := s.teachingProfessors(ctx)
	if err != nil {
		return importer.Summary{}, err
	}
	q := in.parsed()
	payloads := importer.CrossProduct(profs, []model.ParsedQuestion{q}, questionFor)
	if in.IsActive != nil {
		for i := range payloads {
			payloads[i].IsActive = *in.IsActive
		}
	}
	return s.persistQuestions(ctx, payloads, 0), nil
}

// UpdateQuestionByText applies the edit to every row whose normalized text
// equals text. Rows keep their owning professor.
func (s *Service) UpdateQuestionByText(ctx context.Context, text string, in QuestionInput) (importer.Summary, error) {
	if err := check(in); err != nil {
		return importer.Summary{}, err
	}
	matches, err := s.questionsByText(ctx, text)
	if err != nil {
		return importer.Summary{}, err
	}
	newKey := textnorm.Normalize(in.QuestionText)
	if newKey != textnorm.Normalize(text) {
		clash, err := s.questionsByText(ctx, in.QuestionText)
		if err != nil && !isNotFound(err) {
			return importer.Summary{}, err
		}
		if len(clash) > 0 {
			return importer.Summary{}, apperr.NewValidationError("another question already has this text",
				apperr.FieldError{Field: "questionText", Error: "already exists"})
		}
	}
	q := in.parsed()
	fields := map[string]any{
		"questionText": q.QuestionText,
		"questionType": q.QuestionType,
		"options":      q.Options,
		"section":      q.Section,
		"weight":       q.Weight,
	}
	if in.IsActive != nil {
		fields["isActive"] = *in.IsActive
	}
	return importer.Run(ctx, matches, func(ctx context.Context, row model.EvaluationQuestion) error {
		f := make(map[string]any, len(fields))
		for k, v := range fields {
			f[k] = v
		}
		return s.questions.Update(ctx, row.ID, f)
	}, runOpts(s, 0, questionLabel)), nil
}

// DeleteQuestionByText removes every row whose normalized text equals text.
func (s *Service) DeleteQuestionByText(ctx context.Context, text string) (importer.Summary, error) {
	matches, err := s.questionsByText(ctx, text)
	if err != nil {
		return importer.Summary{}, err
	}
	return importer.Run(ctx, matches, func(ctx context.Context, row model.EvaluationQuestion) error {
		return s.questions.Delete(ctx, row.ID)
	}, runOpts(s, 0, questionLabel)), nil
}

func (s *Service) questionsByText(ctx context.Context, text string) ([]model.EvaluationQuestion, error) {
	key := textnorm.Normalize(text)
	if key == "" {
		return nil, apperr.NewValidationError("question text is required",
			apperr.FieldError{Field: "questionText", Error: "is required"})
	}
	rows, err := s.questions.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.EvaluationQuestion
	for _, q := range rows {
		if textnorm.Normalize(q.QuestionText) == key {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, apperr.ErrNotFound
	}
	return out, nil
}

func (s *Service) teachingProfessors(ctx context.Context) ([]model.Professor, error) {
	all, err := s.professors.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.Teaching() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, apperr.NewValidationError("add professors before adding questions")
	}
	return out, nil
}

func (s *Service) persistQuestions(ctx context.Context, rows []model.EvaluationQuestion, skipped int) importer.Summary {
	opts := runOpts(s, skipped, questionLabel)
	opts.OnProgress = s.progressLogger("questions")
	return importer.Run(ctx, rows, func(ctx context.Context, q model.EvaluationQuestion) error {
		_, err := s.questions.Create(ctx, q)
		return err
	}, opts)
}

func questionFor(p model.Professor, q model.ParsedQuestion) model.EvaluationQuestion {
	return q.Question(p)
}

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }

func questionLabel(q model.EvaluationQuestion) string {
	if q.TeacherName == "" {
		return q.QuestionText
	}
	return q.QuestionText + " (" + q.TeacherName + ")"
}
