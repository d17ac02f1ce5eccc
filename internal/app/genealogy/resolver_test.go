package genealogy

import (
	"context"
	"testing"

	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/storage/memory"
)

const owner = "0x00112233445566778899aabbccddeeff00112233"

func ptr(v int64) *int64 { return &v }

func seedFish(t *testing.T, store *memory.Store, rows ...fish.Row) {
	t.Helper()
	for _, row := range rows {
		row.Owner = owner
		if _, err := store.CreateFish(context.Background(), row); err != nil {
			t.Fatalf("seed fish %d: %v", row.ID, err)
		}
	}
}

func TestFamilyTreeNoParents(t *testing.T) {
	store := memory.New()
	seedFish(t, store, fish.Row{ID: 1, Species: "Guppy"})

	tree, err := NewResolver(store).BuildFamilyTree(context.Background(), 1)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(tree.Ancestors) != 1 || tree.Ancestors[0].Fish.ID != 1 || tree.Ancestors[0].Generation != 0 {
		t.Fatalf("expected only self at generation 0, got %+v", tree.Ancestors)
	}
	if len(tree.Descendants) != 0 {
		t.Fatalf("expected no descendants, got %+v", tree.Descendants)
	}
}

func TestFamilyTreeAncestorsAndDescendants(t *testing.T) {
	store := memory.New()
	// 1 + 2 -> 3, 3 + 4 -> 5
	seedFish(t, store,
		fish.Row{ID: 1},
		fish.Row{ID: 2},
		fish.Row{ID: 3, Parent1ID: ptr(1), Parent2ID: ptr(2)},
		fish.Row{ID: 4},
		fish.Row{ID: 5, Parent1ID: ptr(3), Parent2ID: ptr(4)},
	)

	tree, err := NewResolver(store).BuildFamilyTree(context.Background(), 3)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	gotAncestors := map[int64]int{}
	for _, n := range tree.Ancestors {
		gotAncestors[n.Fish.ID] = n.Generation
	}
	wantAncestors := map[int64]int{3: 0, 1: 1, 2: 1}
	for id, gen := range wantAncestors {
		if gotAncestors[id] != gen {
			t.Fatalf("ancestor %d at generation %d, want %d (%+v)", id, gotAncestors[id], gen, tree.Ancestors)
		}
	}
	if len(tree.Ancestors) != len(wantAncestors) {
		t.Fatalf("expected %d ancestors, got %+v", len(wantAncestors), tree.Ancestors)
	}

	if len(tree.Descendants) != 1 || tree.Descendants[0].Fish.ID != 5 || tree.Descendants[0].Generation != 1 {
		t.Fatalf("expected fish 5 as sole first-generation descendant, got %+v", tree.Descendants)
	}
}

func TestFamilyTreeMissingParentTruncates(t *testing.T) {
	store := memory.New()
	seedFish(t, store, fish.Row{ID: 10, Parent1ID: ptr(99)})

	tree, err := NewResolver(store).BuildFamilyTree(context.Background(), 10)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(tree.Ancestors) != 1 {
		t.Fatalf("missing parent must truncate, not error: %+v", tree.Ancestors)
	}
}

func TestFamilyTreeCycleTerminates(t *testing.T) {
	store := memory.New()
	// Corrupted data: 20 and 21 list each other as parents.
	seedFish(t, store,
		fish.Row{ID: 20, Parent1ID: ptr(21)},
		fish.Row{ID: 21, Parent1ID: ptr(20)},
	)

	tree, err := NewResolver(store).BuildFamilyTree(context.Background(), 20)
	if err != nil {
		t.Fatalf("cycle must terminate cleanly: %v", err)
	}
	if len(tree.Ancestors) != 2 {
		t.Fatalf("expected self plus one ancestor, got %+v", tree.Ancestors)
	}
}

func TestFamilyTreeDepthLimit(t *testing.T) {
	store := memory.New()
	rows := make([]fish.Row, 0, MaxDepth+2)
	rows = append(rows, fish.Row{ID: 1})
	for id := int64(2); id <= MaxDepth+2; id++ {
		parent := id - 1
		rows = append(rows, fish.Row{ID: id, Parent1ID: ptr(parent)})
	}
	seedFish(t, store, rows...)

	_, err := NewResolver(store).BuildFamilyTree(context.Background(), MaxDepth+2)
	if !errs.IsValidation(err) {
		t.Fatalf("expected validation error for over-deep chain, got %v", err)
	}
}

func TestFamilyTreeRootMissing(t *testing.T) {
	_, err := NewResolver(memory.New()).BuildFamilyTree(context.Background(), 1)
	if !errs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
