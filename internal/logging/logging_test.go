package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	require.NoError(t, Setup("warn", "json", &buf))
	log.Info().Msg("hidden")
	log.Warn().Str("file", "lease.pdf").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"file":"lease.pdf"`)

	assert.Error(t, Setup("loud", "json", &buf))
	assert.Error(t, Setup("info", "xml", &buf))
	assert.NoError(t, Setup("info", "console", &buf))
}

func TestRunLog(t *testing.T) {
	r, err := StartRunLog(t.TempDir(), "inbox")
	require.NoError(t, err)

	r.LogSection("lease 100%.pdf")
	r.LogOutcome("lease.pdf", []string{"lease.report.md"}, nil)
	r.LogOutcome("scan.png", nil, errors.New("no json"))
	processed, failed := r.Counts()
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
	r.Close()
	r.Close()

	data, err := os.ReadFile(r.Path())
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "LEXI INBOX LOG")
	assert.Contains(t, text, strings.Repeat("=", 80)+"\n")
	assert.Contains(t, text, "= lease 100%.pdf\n")
	assert.Contains(t, text, "OK lease.pdf -> lease.report.md")
	assert.Contains(t, text, "FAILED scan.png: no json")
	assert.Contains(t, text, "Processed: 1, failed: 1")
}

func TestRunLog_Nil(t *testing.T) {
	var r *RunLog
	r.Log("ignored")
	r.LogOutcome("x", nil, nil)
	r.Close()
	assert.Equal(t, "", r.Path())
}
