// Package genealogy walks the fish parentage relation in both directions.
package genealogy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/NeoReef/game-backend/internal/app/domain/fish"
	"github.com/NeoReef/game-backend/internal/app/errs"
	"github.com/NeoReef/game-backend/internal/app/storage"
)

// MaxDepth caps traversal depth in either direction. Parent chains deeper
// than this are treated as corrupted data.
const MaxDepth = 50

// Node is one fish in a family tree, tagged with its generation distance
// from the root (self = 0 among ancestors, direct children = 1 among
// descendants).
type Node struct {
	Fish       fish.Row
	Generation int
}

// FamilyTree holds the two independent traversals, each sorted by
// generation ascending.
type FamilyTree struct {
	Ancestors   []Node
	Descendants []Node
}

// Resolver builds family trees from the fish store.
type Resolver struct {
	fishes storage.FishStore
}

// NewResolver constructs a Resolver.
func NewResolver(fishes storage.FishStore) *Resolver {
	return &Resolver{fishes: fishes}
}

// BuildFamilyTree walks ancestors and descendants of the given fish. The
// root must exist; missing intermediate rows truncate the lineage silently.
// The two directions keep independent visited sets, so a fish may appear in
// both lists.
func (r *Resolver) BuildFamilyTree(ctx context.Context, fishID int64) (FamilyTree, error) {
	root, err := r.fishes.GetFishRow(ctx, fishID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return FamilyTree{}, errs.NotFoundf("fish %d not found", fishID)
		}
		return FamilyTree{}, fmt.Errorf("load fish %d: %w", fishID, err)
	}

	tree := FamilyTree{
		Ancestors: []Node{{Fish: root, Generation: 0}},
	}

	visited := map[int64]bool{root.ID: true}
	if err := r.walkAncestors(ctx, root, 1, visited, &tree.Ancestors); err != nil {
		return FamilyTree{}, err
	}

	visited = map[int64]bool{root.ID: true}
	if err := r.walkDescendants(ctx, root.ID, 1, visited, &tree.Descendants); err != nil {
		return FamilyTree{}, err
	}

	sortNodes(tree.Ancestors)
	sortNodes(tree.Descendants)
	return tree, nil
}

func (r *Resolver) walkAncestors(ctx context.Context, row fish.Row, generation int, visited map[int64]bool, out *[]Node) error {
	if generation > MaxDepth {
		return errs.Validationf("ancestor chain of fish %d exceeds %d generations", row.ID, MaxDepth)
	}

	for _, parentID := range []*int64{row.Parent1ID, row.Parent2ID} {
		if parentID == nil || visited[*parentID] {
			continue
		}
		visited[*parentID] = true

		parent, err := r.fishes.GetFishRow(ctx, *parentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Lineage truncated here.
				continue
			}
			return fmt.Errorf("load fish %d: %w", *parentID, err)
		}

		*out = append(*out, Node{Fish: parent, Generation: generation})
		if err := r.walkAncestors(ctx, parent, generation+1, visited, out); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) walkDescendants(ctx context.Context, id int64, generation int, visited map[int64]bool, out *[]Node) error {
	if generation > MaxDepth {
		return errs.Validationf("descendant chain of fish %d exceeds %d generations", id, MaxDepth)
	}

	children, err := r.fishes.ListFishByParent(ctx, id)
	if err != nil {
		return fmt.Errorf("load children of fish %d: %w", id, err)
	}

	for _, child := range children {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true

		*out = append(*out, Node{Fish: child, Generation: generation})
		if err := r.walkDescendants(ctx, child.ID, generation+1, visited, out); err != nil {
			return err
		}
	}
	return nil
}

func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Generation < nodes[j].Generation
	})
}
