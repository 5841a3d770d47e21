package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		GeneratedAt: time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC),
		VaultRoot:   "/tmp/vault",
		Findings: []Finding{
			{Component: "chain_integrity", Status: StatusOK, Message: "G1-G4 hold"},
			{Component: "distro/aabbccdd", Status: StatusWarning, Message: "expires in 2 days"},
		},
	}
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()
	require.Equal(t, 1, r.Passed())
	require.Equal(t, 1, r.Warnings())
	require.Equal(t, 0, r.Failed())
	require.True(t, r.Valid())
}

func TestReportInvalidWhenFailed(t *testing.T) {
	r := sampleReport()
	r.Findings = append(r.Findings, Finding{Component: "manifest_digest", Status: StatusFailed, Message: "mismatch"})
	require.False(t, r.Valid())
	require.Contains(t, r.Summary(), "[FAILED]")
}

func TestGenerateText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(FormatText).Generate(sampleReport(), &buf))
	out := buf.String()
	require.Contains(t, out, "chain_integrity")
	require.Contains(t, out, "[OK]")
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(FormatJSON).Generate(sampleReport(), &buf))
	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Findings, 2)
}

func TestGenerateMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewGenerator(FormatMarkdown).Generate(sampleReport(), &buf))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "# ignite vault report"))
	require.Contains(t, out, "| chain_integrity |")
}
