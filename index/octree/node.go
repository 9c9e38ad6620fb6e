package octree

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

// leaf holds record handles whose keys lie in its half-open domain.
type leaf[R any] struct {
	domain  geom.BBox
	records []R
}

// branch owns eight children whose domains tile its domain. Child i covers
// the octant with code i relative to mid.
type branch struct {
	domain   geom.BBox
	mid      geom.Point
	children [8]nodeRef
}
