// Package locale resolves locale tokens and manages locale records.
//
// A token is either a numeric id or a locale code. Codes are matched after
// trimming and lowercasing, so "EN" and " en " both resolve to the "en"
// locale. An unknown or empty token resolves to nil without an error; callers
// decide whether that means "all locales" or "nothing".
//
// Deleting a locale or changing its code changes export output, so the Store
// bumps the export cache version after those writes commit.
package locale
