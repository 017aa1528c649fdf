package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lexi/internal/catalog"
	"github.com/lexi/internal/workspace"
	"github.com/lexi/pkg/models"
)

// ClientKeyHeader identifies the browser/client whose theme is loaded
const ClientKeyHeader = "X-Lexi-Client"

// GET /api/v1/templates?q=
func (s *Server) listTemplates(c echo.Context) error {
	templates := catalog.Search(c.QueryParam("q"))
	if templates == nil {
		templates = []models.DocumentTemplate{}
	}
	return c.JSON(http.StatusOK, map[string]any{"templates": templates})
}

// GET /api/v1/templates/:id
func (s *Server) getTemplate(c echo.Context) error {
	tmpl, ok := catalog.Resolve(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "template not found"})
	}
	return c.JSON(http.StatusOK, tmpl)
}

func (s *Server) session(c echo.Context) (*workspace.Session, error) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		return nil, errSessionNotFound
	}
	return sess, nil
}

// POST /api/v1/sessions
func (s *Server) createSession(c echo.Context) error {
	clientKey := strings.TrimSpace(c.Request().Header.Get(ClientKeyHeader))
	sess, err := s.sessions.Create(c.Request().Context(), clientKey)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, sess.Snapshot())
}

// GET /api/v1/sessions/:id
func (s *Server) getSession(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Snapshot())
}

// DELETE /api/v1/sessions/:id
func (s *Server) deleteSession(c echo.Context) error {
	if !s.sessions.Delete(c.Param("id")) {
		return respondError(c, errSessionNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

type navigateRequest struct {
	View       string `json:"view"`
	TemplateID string `json:"templateId,omitempty"`
}

// POST /api/v1/sessions/:id/navigate
func (s *Server) navigate(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req navigateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	view, err := workspace.ParseView(req.View)
	if err != nil {
		return badRequest(c, err.Error())
	}
	snapshot, err := sess.Navigate(view, req.TemplateID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// POST /api/v1/sessions/:id/theme/toggle
func (s *Server) toggleTheme(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	theme, err := sess.ToggleTheme(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"theme": theme})
}
