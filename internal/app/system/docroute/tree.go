// internal/app/system/docroute/tree.go
package docroute

import (
	"sort"
	"time"

	"github.com/dalemusser/docuverse/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Node is one entry of the sidebar tree.
type Node struct {
	ID        primitive.ObjectID  `json:"id"`
	ParentID  *primitive.ObjectID `json:"parentId,omitempty"`
	Slug      string              `json:"slug"`
	Title     string              `json:"title"`
	Order     int                 `json:"order"`
	IsFolder  bool                `json:"isFolder"`
	FullPath  string              `json:"fullPath"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Children  []*Node             `json:"children"`
}

// BuildTree converts a flat, parent-referencing page list into a forest.
//
// Pages whose parent is missing from the list are promoted to roots, so the
// forest always holds exactly len(pages) nodes. A parent cycle is broken at
// the member that appears first in pages; that member becomes a root.
// Siblings are ordered by Order, ties keep input order.
//
// basePath is prefixed to every FullPath (see BasePath).
func BuildTree(pages []models.Page, basePath string) []*Node {
	index := make(map[primitive.ObjectID]int, len(pages))
	nodes := make([]*Node, len(pages))
	for i, p := range pages {
		index[p.ID] = i
		nodes[i] = &Node{
			ID:        p.ID,
			Slug:      p.Slug,
			Title:     p.Title,
			Order:     p.Order,
			IsFolder:  p.IsFolder,
			UpdatedAt: p.UpdatedAt,
			Children:  []*Node{},
		}
	}

	// parent[i] is the index of i's parent, or -1 for a root.
	parent := make([]int, len(pages))
	for i, p := range pages {
		parent[i] = -1
		if p.ParentID == nil {
			continue
		}
		if j, ok := index[*p.ParentID]; ok && j != i {
			parent[i] = j
		}
	}
	breakCycles(parent)

	roots := make([]*Node, 0)
	for i, n := range nodes {
		if parent[i] < 0 {
			roots = append(roots, n)
			continue
		}
		pid := nodes[parent[i]].ID
		n.ParentID = &pid
		nodes[parent[i]].Children = append(nodes[parent[i]].Children, n)
	}

	sortNodes(roots)
	assignPaths(roots, basePath, make(map[primitive.ObjectID]bool, len(nodes)))
	return roots
}

// breakCycles walks each node's parent chain and cuts every cycle it finds
// by turning the lowest-index member into a root.
func breakCycles(parent []int) {
	// state: 0 unvisited, 1 on current chain, 2 known to reach a root
	state := make([]int, len(parent))
	for start := range parent {
		if state[start] == 2 {
			continue
		}
		var chain []int
		cur := start
		for cur >= 0 && state[cur] == 0 {
			state[cur] = 1
			chain = append(chain, cur)
			cur = parent[cur]
		}
		if cur >= 0 && state[cur] == 1 {
			// cur is on the current chain: chain[k:] is the cycle.
			k := 0
			for chain[k] != cur {
				k++
			}
			cut := chain[k]
			for _, m := range chain[k:] {
				if m < cut {
					cut = m
				}
			}
			parent[cut] = -1
		}
		for _, m := range chain {
			state[m] = 2
		}
	}
}

func sortNodes(level []*Node) {
	sort.SliceStable(level, func(i, j int) bool {
		a, b := level[i], level[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID.Hex() < b.ID.Hex()
	})
	for _, n := range level {
		sortNodes(n.Children)
	}
}

func assignPaths(level []*Node, prefix string, seen map[primitive.ObjectID]bool) {
	for _, n := range level {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		n.FullPath = prefix + "/" + n.Slug
		assignPaths(n.Children, n.FullPath, seen)
	}
}

// Flatten returns every node of the forest in depth-first pre-order.
// Each node is returned once even if the structure was mutated into a cycle
// after BuildTree.
func Flatten(roots []*Node) []*Node {
	var out []*Node
	seen := make(map[primitive.ObjectID]bool)
	var walk func([]*Node)
	walk = func(level []*Node) {
		for _, n := range level {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// Find returns the node with the given id, or nil.
func Find(roots []*Node, id primitive.ObjectID) *Node {
	for _, n := range Flatten(roots) {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Ancestors returns the chain from a root down to (and including) the node
// with the given id. It returns nil if the id is not in the forest.
func Ancestors(roots []*Node, id primitive.ObjectID) []*Node {
	seen := make(map[primitive.ObjectID]bool)
	var path []*Node
	var walk func([]*Node) bool
	walk = func(level []*Node) bool {
		for _, n := range level {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			path = append(path, n)
			if n.ID == id || walk(n.Children) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if walk(roots) {
		return path
	}
	return nil
}
