// Package server runs the registration/status service and implements the
// administrative commands that flip the global enabled flag out of band.
package server
