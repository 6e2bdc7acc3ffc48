// Package updater replaces the running opi binary with the release published
// in the update folder.
//
// The release is described by a YAML manifest holding the version and the
// base64 SHA-512 checksum of every artifact. The platform artifact is
// downloaded with retries and applied atomically after checksum verification.
package updater
