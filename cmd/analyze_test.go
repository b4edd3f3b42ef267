package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeCompanyName(t *testing.T) {
	name, err := analyzeCompanyName("Acme Corp", "")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", name)

	// A bare ticker serves as the company name.
	name, err = analyzeCompanyName("", "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", name)

	// The explicit name wins over the ticker.
	name, err = analyzeCompanyName("Apple Inc.", "aapl")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", name)

	_, err = analyzeCompanyName("", "")
	require.Error(t, err)
}

func TestAnalyzeInput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filing.txt")
	require.NoError(t, os.WriteFile(path, []byte("PART I\nItem 1. Business\nWe sell widgets."), 0644))

	text, err := analyzeInput(context.Background(), "", []string{path})
	require.NoError(t, err)
	assert.Contains(t, text, "We sell widgets.")
}

func TestAnalyzeInput_HTMLFileStripped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filing.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><p>PART I</p><script>x()</script></body></html>"), 0644))

	text, err := analyzeInput(context.Background(), "", []string{path})
	require.NoError(t, err)
	assert.Contains(t, text, "PART I")
	assert.NotContains(t, text, "x()")
}

func TestAnalyzeInput_RequiresSource(t *testing.T) {
	_, err := analyzeInput(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--ticker")
}

func TestAnalyzeTickerFlags(t *testing.T) {
	assert.NotNil(t, analyzeCmd.Flags().Lookup("ticker"))
	assert.NotNil(t, analyzeCmd.Flags().Lookup("form"))
	// A lone positional argument is optional now that --ticker exists.
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, nil))
	assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"filing.txt"}))
}
