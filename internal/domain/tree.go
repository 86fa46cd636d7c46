package domain

import "sort"

// BuildPermissionTree assembles flat permission records into a forest using
// their parent references. Input is ordered by SortOrder (stable on ties) so
// sibling order is deterministic. A permission whose parent id is unknown is
// dropped from the result rather than promoted to a root. The build is a
// single linear pass over an id->node arena, so a corrupt parent chain can
// lose nodes but can never loop.
func BuildPermissionTree(permissions []Permission) []*PermissionTreeNode {
	sorted := make([]Permission, len(permissions))
	copy(sorted, permissions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	nodes := make(map[string]*PermissionTreeNode, len(sorted))
	for i := range sorted {
		nodes[sorted[i].ID] = &PermissionTreeNode{
			Permission: sorted[i],
			Children:   []*PermissionTreeNode{},
		}
	}

	roots := make([]*PermissionTreeNode, 0, len(sorted))
	for i := range sorted {
		node := nodes[sorted[i].ID]
		if sorted[i].ParentID == "" {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[sorted[i].ParentID]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}
