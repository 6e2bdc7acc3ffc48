package install

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSpecifierName checks bare name extraction for common requirement forms.
func TestSpecifierName(t *testing.T) {
	t.Parallel()

	cases := map[Specifier]string{
		"requests":                          "requests",
		"requests==2.31.0":                  "requests",
		"  flask == 3.0 ":                   "flask",
		"numpy>=1.26":                       "numpy",
		"pandas~=2.1":                       "pandas",
		"uvicorn[standard]":                 "uvicorn",
		"pywin32; sys_platform=='win32'":    "pywin32",
		"mypkg @ https://example.com/x.whl": "mypkg",
		"django!=4.0":                       "django",
	}

	for spec, want := range cases {
		require.Equal(t, want, spec.Name(), string(spec))
	}
}

// TestReport checks the counting helpers over both passes.
func TestReport(t *testing.T) {
	t.Parallel()

	r := &Report{
		Results: []Result{
			{Specifier: "a", Outcome: AlreadyPresent},
			{Specifier: "b", Outcome: Installed},
			{Specifier: "c", Outcome: Failed},
			{Specifier: "d", Outcome: Failed},
		},
		Retries: []Result{
			{Specifier: "c", Outcome: Installed},
			{Specifier: "d", Outcome: Failed},
		},
	}

	require.Equal(t, 1, r.Count(AlreadyPresent))
	require.Equal(t, 1, r.Count(Installed))
	require.Equal(t, 2, r.Count(Failed))
	require.Equal(t, []Specifier{"c"}, r.Recovered())
	require.Equal(t, []Specifier{"d"}, r.Failed())
	require.Equal(t, "already installed", AlreadyPresent.String())
}

// TestParseEnvChoice maps menu answers to kinds.
func TestParseEnvChoice(t *testing.T) {
	t.Parallel()

	kind, err := ParseEnvChoice(" 1 ")
	require.NoError(t, err)
	require.Equal(t, EnvVenv, kind)

	kind, err = ParseEnvChoice("2")
	require.NoError(t, err)
	require.Equal(t, EnvDotEnv, kind)

	_, err = ParseEnvChoice("3")
	require.ErrorIs(t, err, ErrUnknownEnvKind)
}
