package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"evaladmin/internal/apperr"
	"evaladmin/internal/imageproxy"
)

func (h *Handler) historyTree(c *gin.Context) {
	tree, err := h.svc.HistoryTree(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", tree)
}

func (h *Handler) professorHistory(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		h.fail(c, apperr.NewValidationError("year must be a number",
			apperr.FieldError{Field: "year", Error: "must be a number"}))
		return
	}
	rep, err := h.svc.ProfessorHistory(c.Request.Context(), year, c.Param("period"), c.Param("department"), c.Param("professor"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", rep)
}

func (h *Handler) studentProgress(c *gin.Context) {
	p, err := h.svc.StudentProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", p)
}

func (h *Handler) allProgress(c *gin.Context) {
	list, err := h.svc.AllProgress(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", list)
}

func (h *Handler) uploadImage(c *gin.Context) {
	data, name, err := readUpload(c, h.maxImageBytes)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.svc.UploadProfessorImage(c.Request.Context(), c.Param("id"), data, name)
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := "Image uploaded successfully"
	if !res.MetadataSaved {
		msg = "Image uploaded; the professor record will show it shortly"
	}
	ok(c, http.StatusOK, msg, res)
}

// proxyImage serves an allowed remote image with a long-lived cache header.
func (h *Handler) proxyImage(c *gin.Context) {
	if h.proxy == nil {
		h.fail(c, apperr.ErrUnavailable)
		return
	}
	img, err := h.proxy.Fetch(c.Request.Context(), c.Query("url"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", imageproxy.CacheControl)
	c.Data(http.StatusOK, img.ContentType, img.Data)
}
