package grouping

import (
	"fmt"
	"fsd/internal/models"
	"sort"
	"strings"

	"golang.org/x/text/collate"
)

type CategoryNode struct {
	models.Category
	Depth int `json:"depth"`
}

// BuildForest turns a flat category list into a pre-order flattened forest.
// Blank ids and names get synthetic values, duplicate ids after the first are
// dropped, and parents that are blank, self, unknown or part of a cycle are
// cleared so every category ends up reachable from a root.
func BuildForest(categories []models.Category) []CategoryNode {
	cats := sanitizeCategories(categories)
	if len(cats) == 0 {
		return []CategoryNode{}
	}

	index := make(map[string]int, len(cats))
	for i, c := range cats {
		index[c.ID] = i
	}

	for i := range cats {
		p := cats[i].ParentID
		if _, ok := index[p]; !ok || p == cats[i].ID {
			cats[i].ParentID = ""
		}
	}
	breakCycles(cats, index)

	children := make(map[string][]int, len(cats))
	for i, c := range cats {
		children[c.ParentID] = append(children[c.ParentID], i)
	}

	col := newCollator()
	for parent := range children {
		sortSiblings(cats, children[parent], col)
	}

	out := make([]CategoryNode, 0, len(cats))
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, i := range children[parent] {
			out = append(out, CategoryNode{Category: cats[i], Depth: depth})
			walk(cats[i].ID, depth+1)
		}
	}
	walk("", 0)
	return out
}

func sanitizeCategories(categories []models.Category) []models.Category {
	taken := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if id := strings.TrimSpace(c.ID); id != "" && id != UncategorizedID {
			taken[id] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(categories))
	out := make([]models.Category, 0, len(categories))
	for i, c := range categories {
		c.ID = strings.TrimSpace(c.ID)
		c.ParentID = strings.TrimSpace(c.ParentID)
		// The uncategorized bucket owns its id; a user category claiming it
		// is treated like one without an id.
		if c.ID == "" || c.ID == UncategorizedID {
			c.ID = syntheticID(i, taken)
			taken[c.ID] = struct{}{}
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		if strings.TrimSpace(c.Name) == "" {
			c.Name = fmt.Sprintf("Category %d", i+1)
		}
		out = append(out, c)
	}
	return out
}

func syntheticID(i int, taken map[string]struct{}) string {
	id := fmt.Sprintf("category-%d", i)
	for n := 1; ; n++ {
		if _, ok := taken[id]; !ok {
			return id
		}
		id = fmt.Sprintf("category-%d-%d", i, n)
	}
}

// breakCycles walks each category's ancestors in input order. A category that
// turns out to be its own ancestor becomes a root, which breaks that cycle for
// every other member as well.
func breakCycles(cats []models.Category, index map[string]int) {
	for i := range cats {
		visited := map[string]struct{}{cats[i].ID: {}}
		p := cats[i].ParentID
		for p != "" {
			if p == cats[i].ID {
				cats[i].ParentID = ""
				break
			}
			if _, ok := visited[p]; ok {
				break
			}
			visited[p] = struct{}{}
			p = cats[index[p]].ParentID
		}
	}
}

func sortSiblings(cats []models.Category, idx []int, col *collate.Collator) {
	sort.SliceStable(idx, func(a, b int) bool {
		ca, cb := cats[idx[a]], cats[idx[b]]
		if ca.SortOrder != cb.SortOrder {
			return ca.SortOrder < cb.SortOrder
		}
		if c := col.CompareString(ca.Name, cb.Name); c != 0 {
			return c < 0
		}
		return ca.ID < cb.ID
	})
}
