// Package idgen generates identifiers for mail and timers. It lives under
// `internal` because callers should treat identifiers as opaque strings.
package idgen
