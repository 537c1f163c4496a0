package commands

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/fileurl/internal/batch"
	"github.com/Sumatoshi-tech/fileurl/internal/config"
	"github.com/Sumatoshi-tech/fileurl/pkg/fileurl"
)

func sampleReport() batch.Report {
	return batch.Report{Entries: []batch.Entry{
		{
			Path: "/repo/src/a.go",
			Result: fileurl.Result{
				URL:                     testBaseURL + "src/a.go#L3",
				RelativePathFromGitRoot: "src/a.go",
				Branch:                  "main",
			},
		},
		{
			Path: "/tmp/x",
			Err:  &fileurl.Error{Kind: fileurl.ErrNoRemoteConfigured, Path: "/tmp/x", Err: errors.New("no origin")},
		},
	}}
}

func TestRender_LinkFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format string
		simple bool
		want   string
	}{
		{name: "markdown", format: config.FormatMarkdown, want: "[src/a.go](" + testBaseURL + "src/a.go#L3)\n"},
		{name: "markdown simple", format: config.FormatMarkdown, simple: true, want: testBaseURL + "src/a.go#L3\n"},
		{name: "plain ignores simple", format: config.FormatPlain, want: testBaseURL + "src/a.go#L3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, render(&buf, tt.format, sampleReport(), tt.simple))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestRender_YAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render(&buf, config.FormatYAML, sampleReport(), true))

	var got []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	assert.Equal(t, testBaseURL+"src/a.go#L3", got[0]["link"])
	assert.Equal(t, "ok", got[0]["kind"])
	assert.Equal(t, "no_remote_configured", got[1]["kind"])
	assert.Contains(t, got[1]["error"], "no origin")
}

func TestRender_TableMarksFailures(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render(&buf, config.FormatTable, sampleReport(), false))

	out := buf.String()
	assert.Contains(t, out, "no_remote_configured")
	assert.Contains(t, out, "1 failed")
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := render(&bytes.Buffer{}, "xml", sampleReport(), false)
	require.ErrorIs(t, err, config.ErrInvalidFormat)
}

func TestRender_NoLinksWritesNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, render(&buf, config.FormatMarkdown, batch.Report{}, false))
	assert.Empty(t, buf.String())
}
