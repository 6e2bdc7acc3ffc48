package installer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/owl-installer/internal/domain/install"
)

// TestPrompter_Confirm accepts only y and yes.
func TestPrompter_Confirm(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"y\n":     true,
		" YES \n": true,
		"Y":       true,
		"n\n":     false,
		"yep\n":   false,
		"\n":      false,
		"":        false,
	}

	for input, want := range cases {
		var out bytes.Buffer

		got, err := NewPrompter(strings.NewReader(input), NewConsole(&out)).Confirm("Proceed?")
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
		require.Contains(t, out.String(), "Proceed? (Y/N): ")
	}
}

// TestPrompter_ChooseEnv repeats the question until a valid choice arrives.
func TestPrompter_ChooseEnv(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	kind, err := NewPrompter(strings.NewReader("3\nvenv\n2\n"), NewConsole(&out)).ChooseEnv()
	require.NoError(t, err)
	require.Equal(t, install.EnvDotEnv, kind)
	require.Equal(t, 2, strings.Count(out.String(), "Invalid input"))

	_, err = NewPrompter(strings.NewReader("9\n"), NewConsole(&out)).ChooseEnv()
	require.ErrorIs(t, err, errNoAnswer)
}
