// Package registration stores installer registration records.
//
// Records are arbitrary JSON objects keyed by "<host>_<timestamp>". Two backends
// implement Repository: a single JSON document rewritten in full on every write,
// and an SQLite database for deployments that need transactional writes.
package registration
