package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const documentTemplate = `version: "1.0"
namespace: profile-42
category: colors
baseline:
  primaryColor: "#000000"
  fontSize: 16px
slots:
  heading:
    target_property: --font-heading
    default: Inter
    widget: font
storage:
  backend: file
  path: %s
`

type commandResult struct {
	stdout string
	stderr string
	err    error
}

func executeCommand(t *testing.T, args ...string) commandResult {
	t.Helper()
	t.Setenv("DESIGNCTL_DOTENV", "off")

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return commandResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

const draftDocumentTemplate = `version: "1.0"
category: colors
baseline:
  draftNote: hello
storage:
  backend: file
  path: %s
`

// writeDocument writes a document whose file store lives in a temp dir and
// returns the document and store paths.
func writeDocument(t *testing.T) (string, string) {
	t.Helper()
	return writeTemplate(t, documentTemplate)
}

func writeTemplate(t *testing.T, template string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	store := filepath.Join(dir, "settings.json")
	doc := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(doc, []byte(fmt.Sprintf(template, store)), 0o644))
	return doc, store
}
