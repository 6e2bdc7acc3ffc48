package installer

import (
	"context"

	"github.com/oshokin/owl-installer/internal/api/http/owl"
	"github.com/oshokin/owl-installer/internal/logger"
)

// StatusChecker fetches the global enabled flag.
type StatusChecker interface {
	AppStatus(ctx context.Context) (*owl.StatusResponse, error)
}

// remoteEnabled reports whether the installer may proceed. Only an explicit
// "enabled": false stops it; any error or malformed answer lets it through.
func remoteEnabled(ctx context.Context, checker StatusChecker) bool {
	status, err := checker.AppStatus(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Status check failed, continuing", "error", err)
		return true
	}

	return status.IsEnabled()
}
