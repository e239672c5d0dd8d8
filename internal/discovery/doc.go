// Package discovery defines the boundary with the service-discovery
// collaborator: endpoints, named links and a static provider backed by
// fully materialized link data.
package discovery
