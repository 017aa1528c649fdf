// Package media validates uploaded documents and recorded audio before they
// are sent anywhere.
package media

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/pkg/models"
)

// DefaultMaxBytes is the upload ceiling for documents and audio (4 MB)
const DefaultMaxBytes int64 = 4 * 1024 * 1024

// DefaultAudioMIME is assumed when a recording carries no type
const DefaultAudioMIME = "audio/webm"

const genericMIME = "application/octet-stream"

// Limits carries the configured size ceiling
type Limits struct {
	MaxBytes int64
}

// NewLimits builds limits from a megabyte count, falling back to 4 MB
func NewLimits(maxMB int) Limits {
	if maxMB <= 0 {
		return Limits{MaxBytes: DefaultMaxBytes}
	}
	return Limits{MaxBytes: int64(maxMB) * 1024 * 1024}
}

func (l Limits) maxBytes() int64 {
	if l.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return l.MaxBytes
}

// CheckDocument validates an uploaded document: non-empty, within the
// ceiling, and an image or a PDF.
func (l Limits) CheckDocument(file models.UploadedFile) error {
	if len(file.Data) == 0 {
		return apperr.Validation("select_file", "The selected file is empty.", apperr.ErrEmptyInput)
	}
	if file.Size() > l.maxBytes() {
		msg := fmt.Sprintf("File is too large (%.2fMB). Please upload a file smaller than %dMB.",
			float64(file.Size())/1024/1024, l.maxBytes()/1024/1024)
		return apperr.Validation("select_file", msg, apperr.ErrFileTooLarge)
	}
	if !IsDocumentMIME(file.MIMEType) {
		return apperr.Validation("select_file", "Please upload an image or a PDF document.",
			fmt.Errorf("%w: %s", apperr.ErrUnsupportedFile, file.MIMEType))
	}
	return nil
}

// CheckAudio validates a recorded clip against the ceiling
func (l Limits) CheckAudio(clip models.AudioClip) error {
	if len(clip.Data) == 0 {
		return apperr.Validation("transcribe", "No audio was recorded.", apperr.ErrEmptyInput)
	}
	if clip.Size() > l.maxBytes() {
		return apperr.Validation("transcribe", "Audio recording is too long. Please record shorter segments (under 2 minutes).", apperr.ErrFileTooLarge)
	}
	return nil
}

// IsDocumentMIME reports whether mimeType is an image or a PDF
func IsDocumentMIME(mimeType string) bool {
	mimeType = baseType(mimeType)
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

// DetectMIME returns declared unless it is empty or generic, in which case the
// content is sniffed and, failing that, the file extension is consulted.
func DetectMIME(name string, data []byte, declared string) string {
	if d := baseType(declared); d != "" && d != genericMIME {
		return d
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return baseType(byExt)
	}
	if declared != "" {
		return baseType(declared)
	}
	return genericMIME
}

// NewUploadedFile builds an UploadedFile with a resolved MIME type
func NewUploadedFile(name, declared string, data []byte) models.UploadedFile {
	return models.UploadedFile{
		Name:     filepath.Base(name),
		MIMEType: DetectMIME(name, data, declared),
		Data:     data,
	}
}

// NewAudioClip builds an AudioClip, defaulting the type to audio/webm
func NewAudioClip(declared string, data []byte) models.AudioClip {
	mimeType := baseType(declared)
	if mimeType == "" || mimeType == genericMIME {
		if kind, err := filetype.Match(data); err == nil && filetype.IsAudio(data) {
			mimeType = kind.MIME.Value
		} else {
			mimeType = DefaultAudioMIME
		}
	}
	return models.AudioClip{MIMEType: mimeType, Data: data}
}

// IsDocumentPath reports whether a path has an extension the analyzer accepts
func IsDocumentPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".webp", ".gif", ".heic", ".heif":
		return true
	}
	return false
}

func baseType(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
