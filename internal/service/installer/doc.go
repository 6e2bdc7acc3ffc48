// Package installer implements the opi wizard: it checks the remote kill-switch,
// confirms the project directory, provisions a Python environment, installs the
// specifiers of requirements.txt one by one and retries failures once.
//
// Everything the wizard touches outside the process (subprocesses, the status
// service, the trust record) sits behind a small interface so the whole flow
// can be exercised in tests without Python or a network.
package installer
