// Package canonical serializes criteria trees to canonical JSON and derives
// content hashes from them.
//
// Canonical JSON follows RFC 8785: object keys are ordered by UTF-16 code
// units, strings are NFC-normalized and only escape what JSON requires, and
// numbers use the shortest round-tripping form. Two criteria files that
// differ only in key order, whitespace or Unicode normalization hash the
// same.
package canonical
