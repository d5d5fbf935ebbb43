package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/infrastructure/search"
	"github.com/oksasatya/project-feed/pkg/response"
)

// ProjectSearcher is satisfied by search.ProjectIndex.
type ProjectSearcher interface {
	Search(ctx context.Context, q string, size int) ([]search.Document, error)
}

type SearchHandler struct {
	Index  ProjectSearcher
	Logger *logrus.Logger
}

func NewSearchHandler(index ProjectSearcher, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{Index: index, Logger: logger}
}

// Search GET /projects/search?q=&size=
func (h *SearchHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error(c, http.StatusBadRequest, "invalid payload", gin.H{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))

	docs, err := h.Index.Search(c.Request.Context(), q, size)
	if err != nil {
		if errors.Is(err, search.ErrUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, "search unavailable", nil)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, "Search results.", gin.H{"projects": docs})
}
