package admin

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"evaladmin/internal/apperr"
	"evaladmin/internal/model"
	"evaladmin/internal/textnorm"
)

type DepartmentInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (s *Service) ListDepartments(ctx context.Context) ([]model.Department, error) {
	ds, err := s.departments.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ds, func(i, j int) bool { return strings.ToLower(ds[i].Name) < strings.ToLower(ds[j].Name) })
	return ds, nil
}

// CreateDepartment adds a department; names are unique after normalization.
func (s *Service) CreateDepartment(ctx context.Context, in DepartmentInput) (model.Department, error) {
	if err := check(in); err != nil {
		return model.Department{}, err
	}
	existing, err := s.departments.GetAll(ctx)
	if err != nil {
		return model.Department{}, err
	}
	if departmentTaken(existing, in.Name, "") {
		return model.Department{}, duplicateDepartment()
	}
	d := model.Department{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
	id, err := s.departments.Create(ctx, d)
	if err != nil {
		return model.Department{}, err
	}
	d.ID = id
	return d, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id string, in DepartmentInput) (model.Department, error) {
	if err := check(in); err != nil {
		return model.Department{}, err
	}
	existing, err := s.departments.GetAll(ctx)
	if err != nil {
		return model.Department{}, err
	}
	if departmentTaken(existing, in.Name, id) {
		return model.Department{}, duplicateDepartment()
	}
	d := model.Department{ID: id, Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
	if err := s.departments.Replace(ctx, id, d); err != nil {
		return model.Department{}, err
	}
	return d, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, id string) error {
	return s.departments.Delete(ctx, id)
}

// ensureDepartments creates departments named by imported professors that do
// not exist yet. Failures are logged; the import itself already succeeded.
func (s *Service) ensureDepartments(ctx context.Context, names []string) {
	existing, err := s.departments.GetAll(ctx)
	if err != nil {
		s.log.Warn("list departments failed", zap.Error(err))
		return
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || departmentTaken(existing, name, "") {
			continue
		}
		d := model.Department{Name: name}
		id, err := s.departments.Create(ctx, d)
		if err != nil {
			s.log.Warn("create department failed", zap.String("department", name), zap.Error(err))
			continue
		}
		d.ID = id
		existing = append(existing, d)
	}
}

func departmentTaken(existing []model.Department, name, exceptID string) bool {
	key := textnorm.Normalize(name)
	for _, d := range existing {
		if d.ID != exceptID && textnorm.Normalize(d.Name) == key {
			return true
		}
	}
	return false
}

func duplicateDepartment() error {
	return apperr.NewValidationError("a department with this name already exists",
		apperr.FieldError{Field: "name", Error: "already exists"})
}
