// Package entities provides core domain entities for the bridge.
// These are plain data types shared by the bridge core, its adapters and the wire format.
package entities
