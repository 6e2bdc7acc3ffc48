package installer

import "errors"

var (
	// ErrDisabled is returned when the status service reports that installers are disabled.
	ErrDisabled = errors.New("installer disabled by the publisher")
	// ErrNotConfirmed is returned when the operator declines the working directory.
	ErrNotConfirmed = errors.New("working directory not confirmed")
	// ErrManifestNotFound is returned when the requirements file is missing.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrManifestEncoding is returned when the requirements file is not valid UTF-8.
	ErrManifestEncoding = errors.New("manifest is not valid UTF-8")
	// ErrEnvironment is returned when the Python environment cannot be provisioned.
	ErrEnvironment = errors.New("environment provisioning failed")
	// ErrAlreadyRunning is returned when another installer holds the project lock.
	ErrAlreadyRunning = errors.New("another installer is running in this project")
	// ErrPackagesFailed is returned in strict mode when packages are still failed after the retry pass.
	ErrPackagesFailed = errors.New("packages failed to install")
	// errNoAnswer is returned when the operator closes the input stream during a prompt.
	errNoAnswer = errors.New("no answer from operator")
)
