package security

import (
	"strings"
	"testing"
)

func TestHasher_HashAndVerify(t *testing.T) {
	hasher, err := NewHasher(InsecureTestConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	encoded, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected encoded prefix: %s", encoded)
	}

	ok, err := hasher.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching secret to verify")
	}

	ok, err = hasher.Verify("wrong secret", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatched secret to fail verification")
	}
}

func TestHasher_HashesAreSalted(t *testing.T) {
	hasher, err := NewHasher(InsecureTestConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	first, err := hasher.Hash("same input")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := hasher.Hash("same input")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if first == second {
		t.Fatalf("expected distinct hashes for the same input")
	}
}

func TestHasher_VerifyAcrossParameterChanges(t *testing.T) {
	old, err := NewHasher(InsecureTestConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	encoded, err := old.Hash("sekrit-value-9")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	// A hasher with different parameters must still verify old hashes
	// using the parameters embedded in the encoded form.
	upgraded, err := NewHasher(Argon2Config{
		Memory:      16 * 1024,
		Iterations:  2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	ok, err := upgraded.Verify("sekrit-value-9", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected hash from previous parameters to verify")
	}
}

func TestHasher_VerifyRejectsMalformedHash(t *testing.T) {
	hasher, err := NewHasher(InsecureTestConfig())
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	if _, err := hasher.Verify("anything", "not-an-encoded-hash"); err == nil {
		t.Fatalf("expected error for malformed encoded hash")
	}

	ok, err := hasher.Verify("", "")
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatalf("expected empty inputs to fail verification")
	}
}

func TestNewHasher_RejectsWeakConfig(t *testing.T) {
	cases := []Argon2Config{
		{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{Memory: 8 * 1024, Iterations: 0, Parallelism: 1, SaltLength: 8, KeyLength: 16},
		{Memory: 8 * 1024, Iterations: 1, Parallelism: 0, SaltLength: 8, KeyLength: 16},
		{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 4, KeyLength: 16},
		{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 8},
	}

	for i, cfg := range cases {
		if _, err := NewHasher(cfg); err == nil {
			t.Fatalf("case %d: expected config to be rejected", i)
		}
	}
}
