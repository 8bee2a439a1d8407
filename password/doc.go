// Package password hashes and verifies portal credentials.
//
// New hashes use argon2id in PHC string format. Hashes migrated from the
// previous portal backend are bcrypt; those still verify, and
// [Hasher.NeedsUpgrade] reports them so a successful login can transparently
// re-hash the credential with current parameters.
package password
