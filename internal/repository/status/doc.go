// Package status implements persistence for the global enabled flag.
//
// The FileRepository stores and loads the flag as JSON on disk and exposes a
// Repository interface that the server service and admin commands depend on.
package status
