// Package owl implements the HTTP transport of the registration/status service.
//
// It decodes and validates requests, calls into a provided business-service
// interface and renders JSON responses. The request and response types are
// shared with the installer's client.
package owl
