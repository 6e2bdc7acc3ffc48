//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"

	domain "github.com/oshokin/owl-installer/internal/domain/status"
)

// OperatorName returns USERNAME, then USER, then hostname as the operator identity.
func OperatorName(lookup func(string) (string, bool), hostname string) string {
	for _, key := range []string{"USERNAME", "USER"} {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
	}

	return hostname
}

// DetectActor gathers host and operator information for audit trail.
func DetectActor() (*domain.Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	return &domain.Actor{
		Hostname: hostname,
		Username: OperatorName(os.LookupEnv, hostname),
	}, nil
}
