package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	gossh "golang.org/x/crypto/ssh"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash %q is not in PHC format", hash)
	}
	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("incorrect horse", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatal(err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ by salt")
	}
	if !VerifyPassword("same password", h1) || !VerifyPassword("same password", h2) {
		t.Error("both hashes should verify")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not phc", "plaintext"},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"},
		{"missing sections", "$argon2id$v=19$m=65536,t=1,p=4"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
		{"bad hash encoding", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$!!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("whatever", tt.hash) {
				t.Errorf("malformed hash %q verified", tt.hash)
			}
		})
	}
}

func TestHostKeyGenerate(t *testing.T) {
	dir := t.TempDir()
	h := HostKey{
		PrivKeyPath:   filepath.Join(dir, "private.pem"),
		SSHPubKeyPath: filepath.Join(dir, "public.pem"),
	}
	if err := h.Generate(); err != nil {
		t.Fatal(err)
	}

	pemBytes, err := os.ReadFile(h.PrivKeyPath)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := gossh.ParsePrivateKey(pemBytes)
	if err != nil {
		t.Fatalf("generated private key does not parse: %v", err)
	}

	pubBytes, err := os.ReadFile(h.SSHPubKeyPath)
	if err != nil {
		t.Fatal(err)
	}
	pub, _, _, _, err := gossh.ParseAuthorizedKey(pubBytes)
	if err != nil {
		t.Fatalf("generated public key does not parse: %v", err)
	}
	if signer.PublicKey().Type() != pub.Type() {
		t.Errorf("key types differ: %q vs %q", signer.PublicKey().Type(), pub.Type())
	}
}
