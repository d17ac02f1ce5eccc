package storage

import "testing"

func TestResolveInsertConflict(t *testing.T) {
	const alice = "0x00112233445566778899aabbccddeeff00112233"
	const bob = "0xffeeddccbbaa99887766554433221100ffeeddcc"

	if got := ResolveInsertConflict(alice, alice); got != AcceptAsIdempotent {
		t.Fatalf("same owner must be idempotent, got %v", got)
	}
	if got := ResolveInsertConflict(alice, bob); got != HardConflict {
		t.Fatalf("different owner must be a hard conflict, got %v", got)
	}
}
