// Package password implements the argon2id hashing pipeline used for account
// credentials. Hashes are serialized in PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$hash) so parameters travel with the
// hash and verification works across parameter upgrades.
//
// Verify compares with [crypto/subtle.ConstantTimeCompare]; NeedsUpgrade
// reports whether a stored hash was produced with weaker parameters than the
// current configuration so callers can rehash opportunistically at login.
package password
