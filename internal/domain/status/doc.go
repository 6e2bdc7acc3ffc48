// Package status contains the domain model of the global enabled flag.
//
// State records whether installers may proceed, when the flag last changed
// and which administrator changed it.
package status
