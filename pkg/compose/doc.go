// Package compose provisions groups of service containers, declared in
// docker-compose files, as reusable test fixtures.
//
// An Environment runs one or more compose files as ordered stages and
// makes every service addressable by its logical compose name: lookups
// return Service descriptors carrying the container's identity,
// internal and external addresses, and published-port table, and each
// name is registered in a hostmap table so it resolves to the
// container's internal address. Readiness callbacks attached to a stage
// gate the next stage until its services are actually usable.
//
// The package drives the compose CLI for lifecycle operations and the
// engine API for container inspection; it does not manage images,
// interpret compose files, or claim exclusive ownership of the
// containers it touches.
package compose
