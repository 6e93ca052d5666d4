package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"evaladmin/internal/admin"
)

func (h *Handler) listQuestions(c *gin.Context) {
	groups, err := h.svc.ListQuestions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", groups)
}

func (h *Handler) createQuestion(c *gin.Context) {
	var in admin.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	sum, err := h.svc.CreateQuestion(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := fmt.Sprintf("Question added for %d professors", sum.Success)
	if n := sum.Failed(); n > 0 {
		msg += fmt.Sprintf(", %d failed", n)
	}
	ok(c, http.StatusCreated, msg, sum)
}

// questionText reads the current text of the question being edited; it is
// passed in the query string since it may contain slashes.
func questionText(c *gin.Context) string {
	return strings.TrimSpace(c.Query("text"))
}

func (h *Handler) updateQuestion(c *gin.Context) {
	text := questionText(c)
	if text == "" {
		h.fail(c, badRequest("text is required"))
		return
	}
	var in admin.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.fail(c, badRequest("invalid request body"))
		return
	}
	sum, err := h.svc.UpdateQuestionByText(c.Request.Context(), text, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := fmt.Sprintf("Question updated for %d professors", sum.Success)
	if n := sum.Failed(); n > 0 {
		msg += fmt.Sprintf(", %d failed", n)
	}
	ok(c, http.StatusOK, msg, sum)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	text := questionText(c)
	if text == "" {
		h.fail(c, badRequest("text is required"))
		return
	}
	sum, err := h.svc.DeleteQuestionByText(c.Request.Context(), text)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, deletedMessage(sum, "question", "questions"), sum)
}
