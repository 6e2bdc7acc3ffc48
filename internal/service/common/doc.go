// Package common holds helpers shared by several services.
//
// It provides a small HTTP client for the registration/status API with
// per-call timeouts and utilities to detect the current operator and host.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
