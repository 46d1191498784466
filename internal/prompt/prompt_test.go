package prompt_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakite/datakite/internal/prompt"
)

func TestLinePrompter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"yes word", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"no word", "no\n", true, false},
		{"empty falls back to default yes", "\n", true, true},
		{"empty falls back to default no", "\n", false, false},
		{"garbage falls back to default", "maybe\n", false, false},
		{"eof falls back to default", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := prompt.NewLine(strings.NewReader(tt.input), out)

			got, err := p.Confirm("Proceed?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Proceed?")
		})
	}
}

func TestLinePrompterHint(t *testing.T) {
	out := &bytes.Buffer{}
	p := prompt.NewLine(strings.NewReader("\n"), out)
	_, err := p.Confirm("Proceed?", true)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Y/n]")

	out.Reset()
	p = prompt.NewLine(strings.NewReader("\n"), out)
	_, err = p.Confirm("Proceed?", false)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[y/N]")
}

func TestStatic(t *testing.T) {
	got, err := prompt.Static(true).Confirm("anything", false)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = prompt.Static(false).Confirm("anything", true)
	require.NoError(t, err)
	assert.False(t, got)
}
