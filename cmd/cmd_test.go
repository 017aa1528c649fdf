package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/catalog"
	"github.com/lexi/internal/prompts"
	"github.com/lexi/internal/workspace"
	"github.com/lexi/pkg/models"
)

func TestParseFieldFlags(t *testing.T) {
	values, err := parseFieldFlags([]string{"Disclosing Party=Acme, Inc.", " Receiving Party =Bob=Smith"})
	require.NoError(t, err)
	assert.Equal(t, models.FormValues{
		"Disclosing Party": "Acme, Inc.",
		"Receiving Party":  "Bob=Smith",
	}, values)

	_, err = parseFieldFlags([]string{"no-equals"})
	assert.Error(t, err)
	_, err = parseFieldFlags([]string{"=value"})
	assert.Error(t, err)
}

func TestMissingFields(t *testing.T) {
	tmpl, ok := catalog.Lookup("5")
	require.True(t, ok)

	missing, err := missingFields(tmpl, models.FormValues{"Disclosing Party": "Acme"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Receiving Party", "Details"}, missing)

	_, err = missingFields(tmpl, models.FormValues{"Landlord": "x"}, "terms")
	assert.ErrorContains(t, err, `"Landlord" is not a field`)
}

func TestPrintTemplates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTemplates(&buf, catalog.Search("lease")))
	out := buf.String()
	assert.Contains(t, out, "REQUIRED FIELDS")
	assert.Contains(t, out, "Landlord, Tenant, Rent, Term")
	assert.NotContains(t, out, "Non-Disclosure")

	buf.Reset()
	require.NoError(t, printTemplates(&buf, nil))
	assert.Equal(t, "No templates match.\n", buf.String())
}

type scriptedReplier struct {
	replies []string
	errs    []error
	calls   int
}

func (r *scriptedReplier) Reply(ctx context.Context, analysis models.AnalysisResult, history []models.ChatMessage, message string) (string, error) {
	i := r.calls
	r.calls++
	return r.replies[i], r.errs[i]
}

func TestChatLoop(t *testing.T) {
	conv := workspace.NewConversation(models.AnalysisResult{Summary: "Lease"})
	r := &scriptedReplier{
		replies: []string{"The fee is $500.", ""},
		errs:    []error{nil, errors.New("503")},
	}
	in := strings.NewReader("What is the fee?\n\nCan I leave early?\nexit\nnever read\n")
	var out bytes.Buffer

	require.NoError(t, chatLoop(context.Background(), in, &out, conv, r))
	assert.Equal(t, 2, r.calls)

	text := out.String()
	assert.Contains(t, text, "Lexi: "+prompts.ChatGreeting)
	assert.Contains(t, text, "Lexi: The fee is $500.")
	assert.Contains(t, text, "Lexi: "+prompts.ChatApology)
	assert.Len(t, conv.Messages(), 5)
}

func TestUserError(t *testing.T) {
	plain := errors.New("read lease.pdf: no such file")
	assert.Same(t, plain, userError(plain))

	err := userError(apperr.Service("draft", "Failed to generate document due to network error.", errors.New("dial tcp")))
	assert.EqualError(t, err, "Failed to generate document due to network error.")
}

func TestCommandsAreUnique(t *testing.T) {
	app := &cli.App{Commands: Commands()}
	seen := map[string]bool{}
	for _, c := range app.Commands {
		assert.False(t, seen[c.Name], c.Name)
		seen[c.Name] = true
	}
	for _, name := range []string{"api", "config", "templates", "draft", "analyze", "transcribe", "watch"} {
		assert.True(t, seen[name], name)
	}
}
