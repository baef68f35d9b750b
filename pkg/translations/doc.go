// Package translations coordinates translation writes.
//
// Every create, update and delete runs its row changes in one transaction:
// the translation key is resolved or created, the (key, locale) row is
// upserted and the tag set is synchronized, or nothing is written at all.
// The export cache version is bumped only after the transaction commits. A
// reader racing the gap between commit and bump may cache the previous
// generation until the next write or the cache TTL; bump failures are
// logged and do not fail the write.
package translations
