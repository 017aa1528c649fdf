package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/render"
	"github.com/lexi/internal/workspace"
)

type setFieldRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type setDetailsRequest struct {
	Details string `json:"details"`
}

// GET /api/v1/sessions/:id/generator
func (s *Server) getGenerator(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	view, err := sess.Generator()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// PUT /api/v1/sessions/:id/generator/fields
func (s *Server) setField(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req setFieldRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return badRequest(c, "Invalid request body")
	}
	view, err := sess.SetField(req.Name, req.Value)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// PUT /api/v1/sessions/:id/generator/details
func (s *Server) setDetails(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	var req setDetailsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	view, err := sess.SetDetails(req.Details)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// POST /api/v1/sessions/:id/generator/submit
func (s *Server) submitDraft(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := sess.SubmitDraft(c.Request().Context()); err != nil {
		return respondError(c, err)
	}
	view, err := sess.Generator()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// POST /api/v1/sessions/:id/generator/edit
func (s *Server) editDraft(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	view, err := sess.EditDraft()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// POST /api/v1/sessions/:id/generator/dictate?field=
// The recording arrives as multipart field "audio".
func (s *Server) dictate(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	field := c.QueryParam("field")
	if field == "" {
		return badRequest(c, "field is required")
	}
	_, mimeType, data, err := readUpload(c, "audio")
	if err != nil {
		return badRequest(c, "An audio recording is required")
	}

	text, err := sess.Dictate(c.Request().Context(), field, workspace.NewBufferDevice(mimeType, data))
	if err != nil {
		return respondError(c, err)
	}
	view, err := sess.Generator()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"text": text, "generator": view})
}

// GET /api/v1/sessions/:id/generator/export.pdf
func (s *Server) exportDocument(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return respondError(c, err)
	}
	doc, ok := sess.Document()
	if !ok {
		return respondError(c, fmt.Errorf("%w: no drafted document to export", workspace.ErrInvalidTransition))
	}

	var buf bytes.Buffer
	if err := s.exporter.WriteDocument(&buf, doc); err != nil {
		return respondError(c, fmt.Errorf("export document: %w", err))
	}
	return attachment(c, render.DocumentFilename(doc.Category, doc.Date), buf.Bytes())
}

func attachment(c echo.Context, filename string, pdf []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	log.Debug().Str("filename", filename).Int("bytes", len(pdf)).Msg("Exporting PDF")
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// readUpload reads a multipart file part, returning its declared type and bytes
func readUpload(c echo.Context, name string) (filename, mimeType string, data []byte, err error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return "", "", nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return "", "", nil, err
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return "", "", nil, err
	}
	return fh.Filename, fh.Header.Get(echo.HeaderContentType), data, nil
}
