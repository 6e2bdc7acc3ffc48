// Package brain persists the per-project trust record that lets the installer
// skip the directory confirmation prompt on later runs.
package brain
