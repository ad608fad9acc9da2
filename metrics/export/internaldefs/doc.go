// Package internaldefs holds the shared metric naming and bucket definitions
// consumed by the prometheus and otel exporters. Not intended for direct use.
package internaldefs
