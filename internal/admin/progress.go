package admin

import (
	"context"

	"evaladmin/internal/model"
	"evaladmin/internal/progress"
)

// StudentProgress is the evaluation checklist of one student.
type StudentProgress struct {
	StudentID string          `json:"studentId"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Items     []progress.Item `json:"items"`
	Status    progress.Status `json:"status"`
	Label     string          `json:"label"`
}

func (s *Service) StudentProgress(ctx context.Context, id string) (StudentProgress, error) {
	st, err := s.students.Get(ctx, id)
	if err != nil {
		return StudentProgress{}, err
	}
	profs, subs, err := s.progressInputs(ctx)
	if err != nil {
		return StudentProgress{}, err
	}
	return studentProgress(st, profs, subs), nil
}

// AllProgress computes the pending badge of every student, in list order.
func (s *Service) AllProgress(ctx context.Context) ([]StudentProgress, error) {
	students, err := s.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	profs, subs, err := s.progressInputs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StudentProgress, 0, len(students))
	for _, st := range students {
		out = append(out, studentProgress(st, profs, subs))
	}
	return out, nil
}

func (s *Service) progressInputs(ctx context.Context) ([]model.Professor, []model.Submission, error) {
	profs, err := s.professors.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	subs, err := s.evaluations.GetAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	return profs, subs, nil
}

func studentProgress(st model.Student, profs []model.Professor, subs []model.Submission) StudentProgress {
	items := progress.Reconcile(st, profs, subs)
	if items == nil {
		items = []progress.Item{}
	}
	status := progress.Summarize(items)
	return StudentProgress{
		StudentID: st.ID,
		Name:      st.FullName(),
		Email:     st.Email,
		Items:     items,
		Status:    status,
		Label:     status.Label(),
	}
}
