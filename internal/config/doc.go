// Package config defines settings used by opi and opi-server and provides
// helpers to load, validate and save them in YAML format.
//
// Settings are optional: without a file every field takes its default, and the
// OPI_SERVER_URL and OPI_SERVER_PORT environment variables override the file.
package config
