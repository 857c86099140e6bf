package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with the given arguments and captures
// stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeFile drops content into a temp file and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// decodeResponse parses a JSON-format CLI response envelope.
func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

const validCriteriaJSON = `[
  {
    "objectType": "all",
    "criteria": [
      {"field": "title", "operator": "CONTAINS", "values": ["report"]}
    ]
  }
]`

const unbalancedCriteriaJSON = `[
  {
    "objectType": "all",
    "criteria": [
      {"field": "title", "operator": "CONTAINS", "values": ["report"], "openBrackets": 1}
    ]
  }
]`

// testDefsCUE is a minimal offline search definition.
const testDefsCUE = `
package defs

objectTypes: [
	{name: "projects", title: "Projects", objectType: "category"},
	{name: "PR0001", title: "Project", objectType: "definition"},
]
fields: [
	{id: "title", title: "Title", uri: "dcterms:title"},
	{id: "size", title: "Size", uri: "emf:size", rangeClass: "long"},
]
dateRanges: [
	{id: "last_month", label: "Last month", order: 2},
	{id: "last_week", label: "Last week", order: 1, dateStartOffset: {hourOffset: -168}},
]
`

func writeDefs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "search.cue", testDefsCUE)
	return dir
}
