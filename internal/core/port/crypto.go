package port

// PasswordHasher hashes and verifies secrets using a salted, slow
// cryptographic hash. Parameters are embedded in the encoded hash so
// verification survives parameter upgrades. Used for both account
// passwords and security-question answers.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, encoded string) (bool, error)
}
