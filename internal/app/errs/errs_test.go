package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
	}{
		{Validationf("bad input"), IsValidation},
		{NotFoundf("gone"), IsNotFound},
		{Conflictf("busy"), IsConflict},
		{OnChain("mintFish", errors.New("rpc down")), IsOnChain},
	}
	for _, tc := range cases {
		if !tc.check(tc.err) {
			t.Fatalf("predicate failed for %v", tc.err)
		}
		// Predicates must see through wrapping.
		if !tc.check(fmt.Errorf("outer: %w", tc.err)) {
			t.Fatalf("predicate failed for wrapped %v", tc.err)
		}
	}

	if IsValidation(NotFoundf("gone")) || IsConflict(Validationf("bad")) {
		t.Fatal("predicates must not cross-match")
	}
	if IsOnChain(errors.New("plain")) {
		t.Fatal("plain errors are not on-chain errors")
	}
}

func TestOnChainErrorMessage(t *testing.T) {
	err := OnChainAfter("mintFish", "0xabc", errors.New("halted"))
	if !strings.Contains(err.Error(), "0xabc") {
		t.Fatalf("message must name the last committed tx: %v", err)
	}

	var oc *OnChainError
	if !errors.As(err, &oc) || oc.Op != "mintFish" || oc.LastTxID != "0xabc" {
		t.Fatalf("unexpected fields: %+v", oc)
	}
	if !strings.Contains(oc.Unwrap().Error(), "halted") {
		t.Fatalf("cause lost: %v", oc.Unwrap())
	}
}
