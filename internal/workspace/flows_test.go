package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/catalog"
	"github.com/lexi/internal/media"
	"github.com/lexi/internal/preferences"
	"github.com/lexi/internal/prompts"
	"github.com/lexi/pkg/models"
)

func TestRequest(t *testing.T) {
	var r Request
	assert.Equal(t, RequestIdle, r.State())

	require.NoError(t, r.Begin())
	assert.ErrorIs(t, r.Begin(), ErrRequestInFlight)

	r.Finish(errors.New("boom"))
	assert.Equal(t, RequestFailed, r.State())
	assert.EqualError(t, r.Err(), "boom")

	require.NoError(t, r.Begin())
	assert.Nil(t, r.Err())
	r.Finish(nil)
	assert.Equal(t, RequestSucceeded, r.State())
	assert.Equal(t, "succeeded", r.State().String())
}

func ndaTemplate(t *testing.T) models.DocumentTemplate {
	tmpl, ok := catalog.Lookup("5")
	require.True(t, ok)
	return tmpl
}

func TestGeneratorForm_Transitions(t *testing.T) {
	g := NewGeneratorForm(ndaTemplate(t))
	assert.Equal(t, FormIncomplete, g.State())

	_, err := g.BeginSubmit()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, g.SetField("Disclosing Party", "Acme"))
	require.NoError(t, g.SetField("Receiving Party", "Bob"))
	assert.Equal(t, FormIncomplete, g.State(), "details still missing")

	require.NoError(t, g.SetDetails("5 year term"))
	assert.Equal(t, FormValid, g.State())

	require.NoError(t, g.SetField("Receiving Party", "  "))
	assert.Equal(t, FormIncomplete, g.State())
	require.NoError(t, g.SetField("Receiving Party", "Bob"))

	assert.ErrorIs(t, g.SetField("Landlord", "x"), ErrUnknownField)

	req, err := g.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, FormSubmitting, g.State())
	assert.Equal(t, "Acme", req.Values["Disclosing Party"])

	_, err = g.BeginSubmit()
	assert.ErrorIs(t, err, ErrRequestInFlight)
	assert.ErrorIs(t, g.SetField("Disclosing Party", "Other"), ErrInvalidTransition)

	g.Complete(models.GeneratedDocument{}, apperr.Service("draft", "Failed to generate document due to network error.", errors.New("x")))
	assert.Equal(t, FormValid, g.State())
	assert.Equal(t, "Failed to generate document due to network error.", g.View().Error)
	assert.False(t, g.View().CanExport)

	_, err = g.BeginSubmit()
	require.NoError(t, err)
	g.Complete(models.GeneratedDocument{Title: "NDA", Content: "# NDA"}, nil)
	assert.Equal(t, FormResult, g.State())
	assert.True(t, g.View().CanExport)
	assert.ErrorIs(t, g.SetDetails("more"), ErrInvalidTransition)

	require.NoError(t, g.Edit())
	assert.Equal(t, FormValid, g.State())
	view := g.View()
	assert.Equal(t, "Acme", view.Values["Disclosing Party"])
	assert.Equal(t, "5 year term", view.Details)
	assert.Nil(t, view.Document)
}

func TestGeneratorForm_AppendToField(t *testing.T) {
	g := NewGeneratorForm(ndaTemplate(t))
	require.NoError(t, g.AppendToField("Disclosing Party", "Acme"))
	require.NoError(t, g.AppendToField("Disclosing Party", "Corporation"))
	assert.Equal(t, "Acme Corporation", g.View().Values["Disclosing Party"])
}

func pdfUpload(size int) models.UploadedFile {
	data := make([]byte, size)
	copy(data, "%PDF-1.7")
	return models.UploadedFile{Name: "lease.pdf", MIMEType: "application/pdf", Data: data}
}

func TestAnalyzer_Transitions(t *testing.T) {
	limits := media.NewLimits(4)
	a := NewAnalyzer()
	assert.Equal(t, UploadEmpty, a.State())

	_, err := a.BeginAnalyze()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = a.Select(pdfUpload(int(media.DefaultMaxBytes)+1), limits)
	assert.ErrorIs(t, err, apperr.ErrFileTooLarge)
	assert.Equal(t, UploadEmpty, a.State())

	require.NoError(t, a.Select(pdfUpload(100), limits))
	assert.Equal(t, UploadFileSelected, a.State())

	_, err = a.BeginAnalyze()
	require.NoError(t, err)
	assert.Equal(t, UploadAnalyzing, a.State())
	assert.ErrorIs(t, a.Select(pdfUpload(10), limits), ErrInvalidTransition)
	assert.ErrorIs(t, a.Remove(), ErrInvalidTransition)
	_, err = a.Chat()
	assert.ErrorIs(t, err, ErrChatUnavailable)

	a.Complete(models.AnalysisResult{}, apperr.Response("analyze", "Could not analyze document. Please ensure the image is clear.", errors.New("no json")))
	assert.Equal(t, UploadFileSelected, a.State())
	assert.Equal(t, "Could not analyze document. Please ensure the image is clear.", a.View().Error)

	_, err = a.BeginAnalyze()
	require.NoError(t, err)
	a.Complete(models.AnalysisResult{Summary: "S", RiskLevel: models.RiskLow}, nil)
	assert.Equal(t, UploadReported, a.State())
	view := a.View()
	assert.True(t, view.CanChat)
	assert.Nil(t, view.File.Data)
	assert.Equal(t, int64(100), view.FileSize)

	// new file drops the report
	require.NoError(t, a.Select(pdfUpload(50), limits))
	assert.Equal(t, UploadFileSelected, a.State())
	_, ok := a.Report()
	assert.False(t, ok)

	require.NoError(t, a.Remove())
	assert.Equal(t, UploadEmpty, a.State())
}

func TestConversation_Order(t *testing.T) {
	c := NewConversation(models.AnalysisResult{Summary: "S"})

	history, err := c.BeginTurn("Is there a penalty?")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = c.BeginTurn("second question")
	assert.ErrorIs(t, err, ErrRequestInFlight)

	c.CompleteTurn("Yes, **$500**.", nil)

	_, err = c.BeginTurn("And renewal?")
	require.NoError(t, err)
	c.CompleteTurn("", errors.New("network down"))

	want := []models.ChatMessage{
		{Role: models.RoleAssistant, Text: prompts.ChatGreeting},
		{Role: models.RoleUser, Text: "Is there a penalty?"},
		{Role: models.RoleAssistant, Text: "Yes, **$500**."},
		{Role: models.RoleUser, Text: "And renewal?"},
		{Role: models.RoleAssistant, Text: prompts.ChatApology},
	}
	if diff := cmp.Diff(want, c.Messages()); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}

	_, err = c.BeginTurn("   ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRecorder_ReleasesDevice(t *testing.T) {
	device := NewBufferDevice("", []byte("audio"))
	var r Recorder

	require.NoError(t, r.Start(context.Background(), device, "Tenant"))
	assert.True(t, device.InUse())
	assert.Equal(t, RecorderRecording, r.State())

	var other Recorder
	assert.ErrorIs(t, other.Start(context.Background(), device, "Tenant"), ErrDeviceBusy)

	clip, field, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, "Tenant", field)
	assert.Equal(t, media.DefaultAudioMIME, clip.MIMEType)
	assert.False(t, device.InUse())
	assert.Equal(t, RecorderIdle, r.State())

	_, _, err = r.Stop()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

type failingCapture struct{ closed *bool }

func (f failingCapture) Stop() (models.AudioClip, error) { return models.AudioClip{}, errors.New("mic unplugged") }
func (f failingCapture) Close() error                    { *f.closed = true; return nil }

type failingDevice struct{ closed bool }

func (d *failingDevice) Open(ctx context.Context) (Capture, error) {
	return failingCapture{closed: &d.closed}, nil
}

func TestRecorder_ReleasesDeviceOnError(t *testing.T) {
	device := &failingDevice{}
	var r Recorder
	require.NoError(t, r.Start(context.Background(), device, "Tenant"))

	_, _, err := r.Stop()
	assert.ErrorContains(t, err, "mic unplugged")
	assert.True(t, device.closed)
	assert.Equal(t, RecorderIdle, r.State())
}

func TestFileDevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.webm")
	require.NoError(t, os.WriteFile(path, []byte("opus-bytes"), 0o644))

	device := &FileDevice{Path: path, MIMEType: "audio/webm"}
	capture, err := device.Open(context.Background())
	require.NoError(t, err)
	assert.True(t, device.InUse())

	clip, err := capture.Stop()
	require.NoError(t, err)
	assert.Equal(t, []byte("opus-bytes"), clip.Data)
	require.NoError(t, capture.Close())
	require.NoError(t, capture.Close())
	assert.False(t, device.InUse())

	_, err = (&FileDevice{Path: filepath.Join(t.TempDir(), "missing")}).Open(context.Background())
	assert.Error(t, err)
}

func TestRouter_ThemePersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.json")

	store, err := preferences.NewFileStore(path)
	require.NoError(t, err)
	router, err := NewRouter(ctx, store, "browser-1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeLight, router.Theme())

	theme, err := router.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, theme)

	// a fresh store and router simulate a reload
	reopened, err := preferences.NewFileStore(path)
	require.NoError(t, err)
	reloaded, err := NewRouter(ctx, reopened, "browser-1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeDark, reloaded.Theme())
}

func TestRouter_Navigate(t *testing.T) {
	router, err := NewRouter(context.Background(), preferences.NewMemoryStore(), "")
	require.NoError(t, err)
	assert.Equal(t, ViewDashboard, router.View())

	assert.ErrorIs(t, router.Navigate(ViewGenerator, nil), ErrNoTemplate)
	assert.Equal(t, ViewDashboard, router.View())

	tmpl := ndaTemplate(t)
	require.NoError(t, router.Navigate(ViewGenerator, &tmpl))
	require.NoError(t, router.Navigate(ViewAbout, nil))
	require.NoError(t, router.Navigate(ViewGenerator, nil))
	selected, ok := router.Selected()
	require.True(t, ok)
	assert.Equal(t, "5", selected.ID)

	_, err = ParseView("settings")
	assert.Error(t, err)
}
