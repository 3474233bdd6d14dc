package prefs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"photoflow/internal/api/respond"
	"photoflow/internal/model"
)

// service defines the interface for preferences and recent projects.
type service interface {
	Preferences(ctx context.Context, owner string) model.Preferences
	SavePreferences(ctx context.Context, p model.Preferences) error
	SaveRecentProject(ctx context.Context, rp model.RecentProject) (model.RecentProject, error)
	RecentProjects(ctx context.Context, owner string, limit int) ([]model.RecentProject, error)
}

// Handler provides HTTP handlers for preferences endpoints.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// Get returns the owner's preferences, defaults included.
func (h *Handler) Get(c *ginext.Context) {
	owner := c.Param("owner")
	if owner == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing owner"))
		return
	}

	respond.OK(c, h.service.Preferences(c.Request.Context(), owner))
}

// Put stores the owner's preferences.
func (h *Handler) Put(c *ginext.Context) {
	owner := c.Param("owner")
	if owner == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing owner"))
		return
	}

	var p model.Preferences
	if err := c.ShouldBindJSON(&p); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}
	p.Owner = owner

	if err := h.service.SavePreferences(c.Request.Context(), p); err != nil {
		zlog.Logger.Err(err).Str("owner", owner).Msg("failed to save preferences")
		respond.Err(c, err)
		return
	}

	respond.OK(c, p)
}

// PostRecent records a client-supplied recent project entry.
func (h *Handler) PostRecent(c *ginext.Context) {
	var rp model.RecentProject
	if err := c.ShouldBindJSON(&rp); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	saved, err := h.service.SaveRecentProject(c.Request.Context(), rp)
	if err != nil {
		zlog.Logger.Err(err).Str("owner", rp.Owner).Msg("failed to save recent project")
		respond.Err(c, err)
		return
	}

	respond.Created(c, saved)
}

// Recent returns the owner's recent projects.
func (h *Handler) Recent(c *ginext.Context) {
	owner := c.Query("owner")
	if owner == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing owner"))
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	projects, err := h.service.RecentProjects(c.Request.Context(), owner, limit)
	if err != nil {
		zlog.Logger.Err(err).Str("owner", owner).Msg("failed to list recent projects")
		respond.Err(c, err)
		return
	}

	respond.OK(c, projects)
}
