// internal/app/system/docroute/select.go
package docroute

// SelectPage picks the page addressed by path within a tree.
//
// An empty path selects the first root. Otherwise the path is walked from
// the roots down, one slug per level, which disambiguates pages that share a
// slug under different folders. If the walk fails, the last segment is
// matched against every slug in tree order and the first hit wins, so links
// that only carry the leaf slug keep working.
func SelectPage(roots []*Node, path []string) (*Node, bool) {
	if len(path) == 0 {
		if len(roots) == 0 {
			return nil, false
		}
		return roots[0], true
	}

	if n := walkPath(roots, path); n != nil {
		return n, true
	}

	last := path[len(path)-1]
	for _, n := range Flatten(roots) {
		if n.Slug == last {
			return n, true
		}
	}
	return nil, false
}

func walkPath(roots []*Node, path []string) *Node {
	level := roots
	var found *Node
	for _, seg := range path {
		found = nil
		for _, n := range level {
			if n.Slug == seg {
				found = n
				break
			}
		}
		if found == nil {
			return nil
		}
		level = found.Children
	}
	return found
}

// FirstPage returns the first non-folder node in tree order, or nil.
func FirstPage(roots []*Node) *Node {
	for _, n := range Flatten(roots) {
		if !n.IsFolder {
			return n
		}
	}
	return nil
}
