// Package domain contains the core business entities for asked.
// These types have no dependencies on infrastructure and represent
// the ubiquitous language of the system: subjects, interview questions,
// sources, registry entries, and workflow decisions.
package domain
