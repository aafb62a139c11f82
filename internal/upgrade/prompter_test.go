package upgrade

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirmAcceptsYesShapes(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"YES\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"absolutely\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader(tt.input), &out)
		assert.Equal(t, tt.want, p.Confirm("Upgrade node 20.1.0 → 20.2.0?"), "input %q", tt.input)
		assert.Contains(t, out.String(), "[y/N]")
	}
}

func TestConfirmClosedInputDeclines(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), io.Discard)
	assert.False(t, p.Confirm("Upgrade node?"))
}

func TestConfirmEOFMidAnswerDeclines(t *testing.T) {
	// "y" with no newline: the stream ended before the operator answered.
	p := NewPrompter(strings.NewReader("y"), io.Discard)
	assert.False(t, p.Confirm("Upgrade node?"))
}

func TestConfirmPhraseRequiresLiteralPhrase(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{"  yes  \n", true},
		{"y\n", false},
		{"Yes\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false},
	}

	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.input), io.Discard)
		got := p.ConfirmPhrase("typescript: 5.9.2 → 6.0.0 is a major version change.", "yes")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestConfirmPhraseShowsQuestionAndPhrase(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\n"), &out)
	p.ConfirmPhrase("This is a major version change.", "yes")

	assert.Contains(t, out.String(), "This is a major version change.")
	assert.Contains(t, out.String(), `Type "yes" to confirm`)
}
