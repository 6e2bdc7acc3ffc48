// Package health exposes the global enabled flag through the standard
// grpc.health.v1 Health service, so that load balancers and operators can
// probe whether installers are currently allowed to proceed.
package health
