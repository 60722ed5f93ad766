// Package adapters bridges the storage-neutral persistence repositories to the
// ports consumed by the application services. Conversions live here so that
// neither side depends on the other's record types.
package adapters
