package install

import (
	"errors"
	"fmt"
	"strings"
)

// EnvKind names the directory of the isolated Python environment.
type EnvKind string

const (
	// EnvVenv is the recommended environment directory.
	EnvVenv EnvKind = "venv"
	// EnvDotEnv is the legacy environment directory.
	EnvDotEnv EnvKind = ".env"
)

// ErrUnknownEnvKind is returned for menu choices other than 1 and 2.
var ErrUnknownEnvKind = errors.New("unknown environment kind")

// EnvKinds lists the supported kinds in menu order.
func EnvKinds() []EnvKind {
	return []EnvKind{EnvVenv, EnvDotEnv}
}

// ParseEnvChoice maps a menu answer ("1" or "2") to an environment kind.
func ParseEnvChoice(answer string) (EnvKind, error) {
	switch strings.TrimSpace(answer) {
	case "1":
		return EnvVenv, nil
	case "2":
		return EnvDotEnv, nil
	default:
		return "", fmt.Errorf("%q: %w", answer, ErrUnknownEnvKind)
	}
}
