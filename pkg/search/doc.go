// Package search implements the translation filter pipeline behind
// GET /translations.
//
// Filters on locale, tag, key and content compose with AND. The key and
// content filters use the native full-text index when the storage dialect
// supports it (MySQL boolean mode, PostgreSQL tsquery) and fall back to an
// escaped LIKE substring match otherwise. The strategy comes from the
// dialect's capability, never from the driver name.
//
// Locale and tag tokens that resolve to nothing behave differently: an
// unknown locale yields an empty page while an unknown tag applies no tag
// constraint at all. Both are pinned by tests.
package search
