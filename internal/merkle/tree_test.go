package merkle

import (
	"crypto/sha256"
	"testing"
)

func leaf(b byte) Hash {
	var h Hash
	h[0] = b
	return h
}

func TestRootEmpty(t *testing.T) {
	if _, ok := Root(nil); ok {
		t.Fatalf("expected no root for empty leaf set")
	}
}

func TestRootSingleLeaf(t *testing.T) {
	l := leaf(1)
	root, ok := Root([]Hash{l})
	if !ok || root != l {
		t.Fatalf("single-leaf root must equal the leaf itself")
	}
}

func TestRootTwoLeaves(t *testing.T) {
	a, b := leaf(1), leaf(2)
	root, ok := Root([]Hash{a, b})
	if !ok {
		t.Fatal("expected a root")
	}
	want := sha256.Sum256(append(append([]byte{}, a[:]...), b[:]...))
	if root != Hash(want) {
		t.Fatalf("two-leaf root mismatch")
	}
}

func TestRootOddCountCarriesLastNodeUp(t *testing.T) {
	a, b, c := leaf(1), leaf(2), leaf(3)
	root, ok := Root([]Hash{a, b, c})
	if !ok {
		t.Fatal("expected a root")
	}
	ab := sha256.Sum256(append(append([]byte{}, a[:]...), b[:]...))
	want := sha256.Sum256(append(append([]byte{}, ab[:]...), c[:]...))
	if root != Hash(want) {
		t.Fatalf("odd-count root mismatch: unpaired node must carry up unchanged")
	}
}

func TestRootDeterministicOrderSensitive(t *testing.T) {
	a, b := leaf(1), leaf(2)
	r1, _ := Root([]Hash{a, b})
	r2, _ := Root([]Hash{b, a})
	if r1 == r2 {
		t.Fatalf("expected order-sensitive root")
	}
}
