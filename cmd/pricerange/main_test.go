package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weirwei/pricemcp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pricemcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const testConfig = `
mcpServers:
  finance:
    command: ./server
symbols: [AAA, BBB]
requestTimeoutSec: 10
`

func TestParseFlags_ConfigFile(t *testing.T) {
	path := writeConfig(t, testConfig)

	cfg, err := parseFlags([]string{"-config", path}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "finance", cfg.Server)
	assert.Equal(t, []string{"AAA", "BBB"}, cfg.Symbols)
	assert.Equal(t, 10, cfg.RequestTimeoutSec)
	assert.Equal(t, pricemcp.DefaultToolName, cfg.ToolName)
}

func TestParseFlags_Overrides(t *testing.T) {
	path := writeConfig(t, testConfig)

	cfg, err := parseFlags([]string{
		"-config", path,
		"-symbols", " C2PU.SI, ,D05.SI ",
		"-tool", "history",
		"-timeout", "0",
		"-leap-day", "rollover",
		"-out", "ranges.tsv",
		"-metrics-textfile", "pricemcp.prom",
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"C2PU.SI", "D05.SI"}, cfg.Symbols)
	assert.Equal(t, "history", cfg.ToolName)
	assert.Equal(t, 0, cfg.RequestTimeoutSec)
	assert.Equal(t, pricemcp.LeapDayRollover, cfg.LeapDayPolicy)
	assert.Equal(t, "ranges.tsv", cfg.Output)
	assert.Equal(t, "pricemcp.prom", cfg.MetricsTextfile)
}

func TestParseFlags_UnsetFlagsKeepConfig(t *testing.T) {
	path := writeConfig(t, testConfig)

	cfg, err := parseFlags([]string{"-config", path, "-tool", "history"}, &bytes.Buffer{})
	require.NoError(t, err)
	// -timeout 未设置，保留配置文件的值
	assert.Equal(t, 10, cfg.RequestTimeoutSec)
}

func TestParseFlags_Errors(t *testing.T) {
	_, err := parseFlags([]string{"extra"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unexpected arguments")

	_, err = parseFlags([]string{"-config", filepath.Join(t.TempDir(), "missing.json")}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-no-such-flag"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_ExitCodes(t *testing.T) {
	path := writeConfig(t, testConfig)

	testCases := []struct {
		desc       string
		args       []string
		wantStatus int
		wantStderr string
	}{
		{
			desc:       "it should print usage on -h",
			args:       []string{"-h"},
			wantStatus: 0,
			wantStderr: "one line per price\nseries when the tool returns several content items",
		},
		{
			desc:       "it should reject unknown flags",
			args:       []string{"-config", path, "-bogus"},
			wantStatus: 2,
		},
		{
			desc:       "it should reject an invalid leap day policy",
			args:       []string{"-config", path, "-leap-day", "skip"},
			wantStatus: 2,
		},
		{
			desc:       "it should reject an unknown server",
			args:       []string{"-config", path, "-server", "missing"},
			wantStatus: 2,
		},
		{
			desc:       "it should fail when the server cannot be launched",
			args:       []string{"-config", path, "-symbols", "AAA"},
			wantStatus: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			status := run(tc.args, stdout, stderr)
			testboil.FailTestIfDiff(t, status, tc.wantStatus)
			if tc.wantStderr != "" {
				testboil.AssertStringContains(t, stderr.String(), tc.wantStderr)
			}
			testboil.FailTestIfDiff(t, stdout.String(), "")
		})
	}
}

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, splitSymbols("A,B"))
	assert.Nil(t, splitSymbols(" , "))
}
