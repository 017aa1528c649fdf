package media

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/pkg/models"
)

var (
	pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d}
	pdfHeader = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
)

func TestCheckDocument_SizeCeiling(t *testing.T) {
	limits := NewLimits(4)

	atLimit := models.UploadedFile{Name: "a.pdf", MIMEType: "application/pdf", Data: make([]byte, 4*1024*1024)}
	assert.NoError(t, limits.CheckDocument(atLimit))

	over := models.UploadedFile{Name: "scan.jpg", MIMEType: "image/jpeg", Data: make([]byte, 5*1024*1024)}
	err := limits.CheckDocument(over)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrFileTooLarge))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "File is too large (5.00MB). Please upload a file smaller than 4MB.", apperr.UserMessage(err))
}

func TestCheckDocument_RejectsOtherTypes(t *testing.T) {
	err := NewLimits(4).CheckDocument(models.UploadedFile{Name: "notes.txt", MIMEType: "text/plain", Data: []byte("hi")})
	assert.True(t, errors.Is(err, apperr.ErrUnsupportedFile))

	err = NewLimits(4).CheckDocument(models.UploadedFile{Name: "empty.pdf", MIMEType: "application/pdf"})
	assert.True(t, errors.Is(err, apperr.ErrEmptyInput))
}

func TestCheckAudio(t *testing.T) {
	limits := Limits{MaxBytes: 10}
	err := limits.CheckAudio(models.AudioClip{Data: bytes.Repeat([]byte{1}, 11)})
	require.Error(t, err)
	assert.Equal(t, "Audio recording is too long. Please record shorter segments (under 2 minutes).", apperr.UserMessage(err))

	assert.NoError(t, limits.CheckAudio(models.AudioClip{Data: []byte{1}}))
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME("upload", pngHeader, ""))
	assert.Equal(t, "application/pdf", DetectMIME("upload.bin", pdfHeader, "application/octet-stream"))
	assert.Equal(t, "image/jpeg", DetectMIME("photo.jpg", []byte("not really"), ""))
	assert.Equal(t, "image/webp", DetectMIME("x", nil, "image/webp; charset=binary"))
}

func TestNewAudioClipDefaultsToWebm(t *testing.T) {
	clip := NewAudioClip("", []byte("opaque"))
	assert.Equal(t, DefaultAudioMIME, clip.MIMEType)

	clip = NewAudioClip("audio/mp4", []byte("opaque"))
	assert.Equal(t, "audio/mp4", clip.MIMEType)
}

func TestIsDocumentPath(t *testing.T) {
	assert.True(t, IsDocumentPath("/in/lease.PDF"))
	assert.True(t, IsDocumentPath("scan.jpeg"))
	assert.False(t, IsDocumentPath("notes.txt"))
	assert.False(t, IsDocumentPath("lease.pdf.md"))
}
