package rustdeps

import "github.com/Sumatoshi-tech/runfile/pkg/importmodel"

// Reserved path roots that refer to the current crate, its modules, or the
// standard library. They never name an external crate.
var reserved = map[string]struct{}{
	"crate": {},
	"self":  {},
	"super": {},
	"std":   {},
}

// IsReserved reports whether ident is a language-internal path root.
func IsReserved(ident string) bool {
	_, ok := reserved[ident]

	return ok
}

// ImportTree is the recursive shape of a single use declaration.
// It is either a *PathNode or a *GroupNode.
type ImportTree interface {
	importTree()
}

// PathNode is a leading identifier followed by a nested path or group.
// Next is nil for a leaf.
type PathNode struct {
	Next  ImportTree
	Ident string
}

// GroupNode is a braced set of sibling subtrees sharing a common prefix.
type GroupNode struct {
	Items []ImportTree
}

func (*PathNode) importTree()  {}
func (*GroupNode) importTree() {}

// Reduce folds tree into acc and returns it.
//
// A path node contributes only its leading identifier; nested segments are not
// inspected, so `tokio::{io, net}` yields `tokio`. A group node contributes each
// member independently.
func Reduce(tree ImportTree, acc importmodel.Set) importmodel.Set {
	switch node := tree.(type) {
	case *PathNode:
		if !IsReserved(node.Ident) {
			acc.Add(node.Ident)
		}
	case *GroupNode:
		for _, item := range node.Items {
			acc = Reduce(item, acc)
		}
	}

	return acc
}

// chain links segments into nested path nodes ending in tail.
func chain(segments []string, tail ImportTree) ImportTree {
	if len(segments) == 0 {
		return tail
	}

	return &PathNode{Ident: segments[0], Next: chain(segments[1:], tail)}
}
