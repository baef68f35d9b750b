// Package export serializes the translation catalog into flat or nested
// JSON documents and serves them with conditional-request support.
//
// The Engine reads translations with a streaming cursor, one locale at a
// time. The Negotiator wraps it with ETag/Last-Modified handling and a
// versioned cache: cache keys embed the global export version and the
// freshest updated_at of the requested scope, so a write followed by a
// version bump leaves stale documents unreachable rather than deleting them.
package export
