// Package driving provides interfaces for application entry points
// (primary/inbound ports). The CLI consumes these; core services
// implement them.
package driving
