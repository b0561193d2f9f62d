// Package ports defines the interfaces the bridge core consumes from its collaborators.
// The core depends only on these abstractions; infrastructure adapters implement them.
package ports
