package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"evaladmin/internal/admin"
	"evaladmin/internal/importer"
)

type idsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) bindIDs(c *gin.Context) ([]string, bool) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		h.fail(c, badRequest("ids are required"))
		return nil, false
	}
	return req.IDs, true
}

// deletedMessage renders e.g. "2 students deleted, 1 failed".
func deletedMessage(sum importer.Summary, singular, plural string) string {
	noun := plural
	if sum.Success == 1 {
		noun = singular
	}
	msg := fmt.Sprintf("%d %s deleted", sum.Success, noun)
	if n := sum.Failed(); n > 0 {
		msg += fmt.Sprintf(", %d failed", n)
	}
	return msg
}

func (h *Handler) listProfessors(c *gin.Context) {
	profs, err := h.svc.ListProfessors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", profs)
}

func (h *Handler) getProfessor(c *gin.Context) {
	p, err := h.svc.GetProfessor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", p)
}

func (h *Handler) createProfessor(c *gin.Context) {
	var in admin.ProfessorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	p, err := h.svc.CreateProfessor(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Professor added successfully", p)
}

func (h *Handler) updateProfessor(c *gin.Context) {
	var in admin.ProfessorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	p, err := h.svc.UpdateProfessor(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Professor updated successfully", p)
}

func (h *Handler) deleteProfessor(c *gin.Context) {
	if err := h.svc.DeleteProfessor(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Professor deleted successfully", nil)
}

func (h *Handler) deleteProfessors(c *gin.Context) {
	ids, valid := h.bindIDs(c)
	if !valid {
		return
	}
	sum := h.svc.DeleteProfessors(c.Request.Context(), ids)
	ok(c, http.StatusOK, deletedMessage(sum, "professor", "professors"), sum)
}

func (h *Handler) listStudents(c *gin.Context) {
	students, err := h.svc.ListStudents(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", students)
}

func (h *Handler) getStudent(c *gin.Context) {
	st, err := h.svc.GetStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", st)
}

func (h *Handler) createStudent(c *gin.Context) {
	var in admin.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	st, err := h.svc.CreateStudent(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Student added successfully", st)
}

func (h *Handler) updateStudent(c *gin.Context) {
	var in admin.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	st, err := h.svc.UpdateStudent(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Student updated successfully", st)
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.svc.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Student deleted successfully", nil)
}

func (h *Handler) deleteStudents(c *gin.Context) {
	ids, valid := h.bindIDs(c)
	if !valid {
		return
	}
	sum := h.svc.DeleteStudents(c.Request.Context(), ids)
	ok(c, http.StatusOK, deletedMessage(sum, "student", "students"), sum)
}

func (h *Handler) listDepartments(c *gin.Context) {
	ds, err := h.svc.ListDepartments(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", ds)
}

func (h *Handler) createDepartment(c *gin.Context) {
	var in admin.DepartmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	d, err := h.svc.CreateDepartment(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Department added successfully", d)
}

func (h *Handler) updateDepartment(c *gin.Context) {
	var in admin.DepartmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	d, err := h.svc.UpdateDepartment(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Department updated successfully", d)
}

func (h *Handler) deleteDepartment(c *gin.Context) {
	if err := h.svc.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Department deleted successfully", nil)
}
