package kdtree

import (
	"github.com/hupe1980/orq/geom"
	"github.com/hupe1980/orq/internal/arena"
)

// nodeRef is a tagged reference to either a leaf or a branch. The top bit
// selects the branch arena.
type nodeRef uint32

const branchTag nodeRef = 1 << 31

func leafNode(r arena.Ref) nodeRef { return nodeRef(r) }
func branchNode(r arena.Ref) nodeRef { return nodeRef(r) | branchTag }

func (n nodeRef) isBranch() bool { return n&branchTag != 0 }
func (n nodeRef) ref() arena.Ref { return arena.Ref(n &^ branchTag) }

// leaf holds at most LeafSize records, unless all of them share one key.
// records is a window into the tree's record storage.
type leaf[R any] struct {
	records []R
}

// branch splits its records on axis: the left subtree holds keys not greater
// than split, the right subtree keys greater than split.
type branch struct {
	axis  geom.Axis
	split float64
	left  nodeRef
	right nodeRef
}
