// Package install contains the domain types of one installer run: manifest
// specifiers, environment kinds and per-specifier outcomes.
package install
