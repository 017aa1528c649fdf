package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lexi/internal/media"
	"github.com/lexi/internal/render"
	"github.com/lexi/internal/workspace"
)

type chatRequest struct {
	Message string `json:"message"`
}

// GET /api/v1/sessions/:id/analyzer
func (s *Server) getAnalyzer(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Analyzer())
}

// PUT /api/v1/sessions/:id/analyzer/file
// The document arrives as multipart field "file".
func (s *Server) selectFile(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	name, declared, data, err := readUpload(c, "file")
	if err != nil {
		return badRequest(c, "A document upload is required")
	}

	view, err := sess.SelectFile(media.NewUploadedFile(name, declared, data))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DELETE /api/v1/sessions/:id/analyzer/file
func (s *Server) removeFile(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	view, err := sess.RemoveFile()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// POST /api/v1/sessions/:id/analyzer/analyze
func (s *Server) analyze(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := sess.Analyze(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sess.Analyzer())
}

// GET /api/v1/sessions/:id/analyzer/report.pdf
func (s *Server) exportReport(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	result, ok := sess.Report()
	if !ok {
		return respondError(c, fmt.Errorf("%w: no analysis to export", workspace.ErrInvalidTransition))
	}

	date := s.now()
	var buf bytes.Buffer
	if err := s.exporter.WriteReport(&buf, result, date); err != nil {
		return respondError(c, fmt.Errorf("export report: %w", err))
	}
	return attachment(c, render.ReportFilename(date), buf.Bytes())
}

// GET /api/v1/sessions/:id/chat
func (s *Server) getChat(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	chat, err := sess.Chat()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, chat)
}

// POST /api/v1/sessions/:id/chat
// A failed model call still appends the apology; the error status tells the
// client the reply is not a real answer.
func (s *Server) sendChat(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if _, err := sess.SendChat(c.Request().Context(), req.Message); err != nil {
		return respondError(c, err)
	}
	chat, err := sess.Chat()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, chat)
}
