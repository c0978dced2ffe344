package fork

import "testing"

func table(t *testing.T) Table {
	t.Helper()
	return Table{
		{Height: 0, Spec: Genesis},
		{Height: 10, Spec: Fork1},
		{Height: 20, Spec: Cancun},
	}
}

func TestActiveForHeight(t *testing.T) {
	tb := table(t)
	cases := map[uint64]SpecID{
		0:  Genesis,
		9:  Genesis,
		10: Fork1,
		19: Fork1,
		20: Cancun,
		99: Cancun,
	}
	for h, want := range cases {
		if got := tb.ActiveForHeight(h); got != want {
			t.Fatalf("height %d: want %v got %v", h, want, got)
		}
	}
}

func TestManagerActivationTakesEffectNextBlock(t *testing.T) {
	m, err := NewManager(table(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.ActiveFork(); got != Genesis {
		t.Fatalf("want genesis before any block, got %v", got)
	}

	if err := m.RegisterBlock(9); err != nil {
		t.Fatal(err)
	}
	if got := m.ActiveFork(); got != Genesis {
		t.Fatalf("want genesis still active querying for block 10, got %v", got)
	}

	if err := m.RegisterBlock(10); err != nil {
		t.Fatal(err)
	}
	if got := m.ActiveFork(); got != Fork1 {
		t.Fatalf("want fork1 active after registering block 10, got %v", got)
	}
}

func TestTableValidateRejectsNonMonotone(t *testing.T) {
	bad := Table{{Height: 0, Spec: Genesis}, {Height: 5, Spec: Fork1}, {Height: 5, Spec: Cancun}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error for duplicate activation height")
	}
}

func TestTableValidateRequiresGenesisAtZero(t *testing.T) {
	bad := Table{{Height: 1, Spec: Genesis}}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error when first entry is not height 0")
	}
}
