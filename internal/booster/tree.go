package booster

import (
	"fmt"
	"math"
)

type node struct {
	left, right int32
	feature     int32
	cond        float32 // split threshold, or the leaf value when left < 0
	defaultLeft bool
}

type tree struct {
	nodes []node
}

func newTree(td treeDoc, numFeature int) (tree, error) {
	n := len(td.LeftChildren)
	if n == 0 {
		return tree{}, fmt.Errorf("empty tree")
	}
	if len(td.RightChildren) != n || len(td.SplitIndices) != n || len(td.SplitConditions) != n {
		return tree{}, fmt.Errorf("inconsistent node arrays (left=%d right=%d indices=%d conditions=%d)",
			n, len(td.RightChildren), len(td.SplitIndices), len(td.SplitConditions))
	}
	if len(td.DefaultLeft) != 0 && len(td.DefaultLeft) != n {
		return tree{}, fmt.Errorf("default_left has %d entries for %d nodes", len(td.DefaultLeft), n)
	}

	t := tree{nodes: make([]node, n)}
	for i := 0; i < n; i++ {
		l, r := td.LeftChildren[i], td.RightChildren[i]
		nd := node{
			left:    int32(l),
			right:   int32(r),
			feature: int32(td.SplitIndices[i]),
			cond:    float32(td.SplitConditions[i]),
		}
		if len(td.DefaultLeft) == n {
			nd.defaultLeft = td.DefaultLeft[i]
		}
		if l >= 0 {
			if l >= n || r < 0 || r >= n || l == i || r == i {
				return tree{}, fmt.Errorf("node %d has invalid children (%d, %d)", i, l, r)
			}
			if len(td.SplitType) == n && td.SplitType[i] != 0 {
				return tree{}, fmt.Errorf("node %d uses a categorical split, which is not supported", i)
			}
			if nd.feature < 0 || (numFeature > 0 && int(nd.feature) >= numFeature) {
				return tree{}, fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, nd.feature, numFeature)
			}
		}
		t.nodes[i] = nd
	}
	if err := t.checkAcyclic(); err != nil {
		return tree{}, err
	}
	return t, nil
}

// checkAcyclic verifies that every node reachable from the root is reached
// exactly once, so leaf always terminates. Pruned nodes that are no longer
// reachable are ignored.
func (t *tree) checkAcyclic() error {
	seen := make([]bool, len(t.nodes))
	stack := []int32{0}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[i] {
			return fmt.Errorf("node %d is reachable more than once", i)
		}
		seen[i] = true
		if nd := t.nodes[i]; nd.left >= 0 {
			stack = append(stack, nd.left, nd.right)
		}
	}
	return nil
}

// leaf walks from the root to a leaf and returns its value.
func (t *tree) leaf(fv []float32) float32 {
	i := int32(0)
	for {
		nd := &t.nodes[i]
		if nd.left < 0 {
			return nd.cond
		}
		var x float32
		missing := int(nd.feature) >= len(fv)
		if !missing {
			x = fv[nd.feature]
			missing = math.IsNaN(float64(x))
		}
		switch {
		case missing && nd.defaultLeft:
			i = nd.left
		case missing:
			i = nd.right
		case x < nd.cond:
			i = nd.left
		default:
			i = nd.right
		}
	}
}
