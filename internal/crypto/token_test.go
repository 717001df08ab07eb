package crypto

import "testing"

func TestHashTokenStable(t *testing.T) {
	a := HashToken("access-token")
	b := HashToken("access-token")
	if a != b {
		t.Fatalf("expected stable hash")
	}
	if a == HashToken("other-token") {
		t.Fatalf("expected different tokens to hash differently")
	}
	if len(a) != 43 {
		t.Fatalf("expected 43 char base64url digest, got %d", len(a))
	}
}
