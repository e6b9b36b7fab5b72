package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	projectdomain "github.com/groundplan/groundplan/internal/project/domain"
	"gorm.io/datatypes"
)

type createProjectRequest struct {
	Name     string         `json:"name" binding:"required"`
	Status   string         `json:"status"`
	Currency string         `json:"currency"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	status := projectdomain.ProjectStatusPlanning
	if req.Status != "" {
		status = projectdomain.ProjectStatus(req.Status)
		if !status.Valid() {
			AbortWithError(c, projectdomain.ErrInvalidStatus)
			return
		}
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}
	metadata := datatypes.JSONMap{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	now := time.Now().UTC()
	project := projectdomain.Project{
		ID:        s.genID.Generate(),
		Name:      req.Name,
		Status:    status,
		Currency:  currency,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projectRepo.Insert(c.Request.Context(), s.db, &project); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (s *Server) getProject(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("project_id"))
	if err != nil || id == 0 {
		AbortWithError(c, projectdomain.ErrInvalidID)
		return
	}

	project, err := s.projectRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if project == nil {
		AbortWithError(c, projectdomain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, project)
}
