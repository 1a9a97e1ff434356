// Package catalog loads intent configurations and keeps the last loaded list
// in memory until the source changes.
//
// Decode turns loosely-typed records (as produced by a YAML or JSON parser)
// into domain.Intent values. Cache wraps any ports.IntentSource and reloads it
// only when its modification time moves forward.
package catalog
