package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/application"
	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/interface/middleware"
	"github.com/oksasatya/project-feed/pkg/response"
)

const imageField = "image"

type ProjectHandler struct {
	Svc      *application.ProjectService
	Logger   *logrus.Logger
	MaxBytes int64
}

func NewProjectHandler(svc *application.ProjectService, logger *logrus.Logger, maxBytes int64) *ProjectHandler {
	return &ProjectHandler{Svc: svc, Logger: logger, MaxBytes: maxBytes}
}

// List GET /projects/projects?page=N
func (h *ProjectHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	res, err := h.Svc.List(c.Request.Context(), page)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "Fetched projects successfully.", gin.H{
		"projects":   res.Projects,
		"totalItems": res.TotalItems,
	})
}

// Create POST /projects/project (multipart: projectname, content, image)
func (h *ProjectHandler) Create(c *gin.Context) {
	up, closeUpload, ok := h.readUpload(c)
	if !ok {
		return
	}
	defer closeUpload()

	in := application.ProjectInput{
		Name:    c.PostForm("projectname"),
		Content: c.PostForm("content"),
	}
	p, err := h.Svc.Create(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), in, up)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, "Project created successfully!", gin.H{
		"project": p,
		"creator": p.Creator,
	})
}

// Get GET /projects/project/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "Project fetched.", gin.H{"project": p})
}

// Update PUT /projects/project/:projectId. The image field is either a new
// file or the current image ref sent back as text.
func (h *ProjectHandler) Update(c *gin.Context) {
	up, closeUpload, ok := h.readUpload(c)
	if !ok {
		return
	}
	defer closeUpload()

	in := application.UpdateInput{
		ProjectInput: application.ProjectInput{
			Name:    c.PostForm("projectname"),
			Content: c.PostForm("content"),
		},
		ImageRef: c.PostForm(imageField),
	}
	p, err := h.Svc.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("projectId"), in, up)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "Project updated!", gin.H{"project": p})
}

// Delete DELETE /projects/project/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), c.Param("projectId")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "Deleted project.", nil)
}

// readUpload returns the image file part, or nil when none was sent. It
// writes the error response itself and reports false when the body cannot
// be parsed.
func (h *ProjectHandler) readUpload(c *gin.Context) (*entity.Upload, func(), bool) {
	noop := func() {}
	if h.MaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBytes)
	}
	fh, err := c.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "Upload too large.", gin.H{"limit": tooLarge.Limit})
			return nil, noop, false
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, noop, true
		}
		response.Error(c, http.StatusBadRequest, "invalid payload", gin.H{"payload": err.Error()})
		return nil, noop, false
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return nil, noop, false
	}
	up := &entity.Upload{
		Filename: fh.Filename,
		MimeType: fh.Header.Get("Content-Type"),
		Size:     fh.Size,
		Body:     f,
	}
	return up, func() { _ = f.Close() }, true
}
