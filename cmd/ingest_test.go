package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiabertolotti/teamsartifacts/config"
)

func writeExportDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"output_people.json":        `[{"value":{"mri":"8:orgid:abc","displayName":"Alice"}}]`,
		"output_conversations.json": `[{"tenant_id":"t1","value":{"value":{"id":"19:g@thread.v2"}}}]`,
		"output_replychains.json": `[{"value":{"value":{"conversationId":"19:g@thread.v2","messageMap":
			{"100":{"id":"100","messageType":"Text","creator":"8:orgid:abc","content":"hi"}}}}}]`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestIngestCommand(t *testing.T) {
	exportDir := writeExportDir(t)
	outputPath := filepath.Join(t.TempDir(), "records.jsonl")

	c := NewIngestCommand(func() (*config.Config, error) {
		return config.Default(), nil
	})
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs([]string{"--export-dir", exportDir, "--output", outputPath, "--workers", "2"})

	require.NoError(t, c.Execute())

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"contact"`)
	assert.Contains(t, string(data), `"category":"message"`)
	assert.Contains(t, string(data), `8:orgid:abc (Alice)`)
	assert.Contains(t, out.String(), "records written to")
}

func TestIngestCommand_InvalidConfig(t *testing.T) {
	c := NewIngestCommand(func() (*config.Config, error) {
		return config.Default(), nil // no export dir anywhere
	})
	c.SetOut(&bytes.Buffer{})
	c.SetErr(&bytes.Buffer{})
	c.SetArgs([]string{})

	assert.Error(t, c.Execute())
}

func TestVersionCommand(t *testing.T) {
	c := NewVersionCommand()
	var out bytes.Buffer
	c.SetOut(&out)
	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), "teamsartifacts")
}
