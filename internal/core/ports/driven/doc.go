// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the dual-store index, the subject
// registry, embedding and refinement collaborators, and source
// connectors. Core services depend on these interfaces, never on
// concrete adapters.
package driven
