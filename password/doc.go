// Package password hashes and verifies login passwords with Argon2id.
//
// Hashes are PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes produced with weaker parameters than the
// current configuration so callers can upgrade them after a successful login.
//
// This package never stores passwords and never logs them.
package password
