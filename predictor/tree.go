package predictor

import (
	"context"
	"errors"
	"fmt"

	"github.com/saqibullah/health-risk-predictor/features"
)

// TreeNode is one node of a flattened decision tree. Leaves have Left and
// Right set to -1 and carry the class counts seen during training.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

func (n TreeNode) leaf() bool { return n.Left < 0 && n.Right < 0 }

// Tree is an exported decision tree classifier. Node 0 is the root.
type Tree struct {
	Name      string     `json:"name"`
	NFeatures int        `json:"n_features"`
	Nodes     []TreeNode `json:"nodes"`
}

func (t *Tree) validate() error {
	if len(t.Nodes) == 0 {
		return errors.New("tree model has no nodes")
	}
	if t.NFeatures == 0 {
		t.NFeatures = features.Width
	}
	if t.NFeatures != features.Width {
		return fmt.Errorf("%w: tree expects %d features, want %d", ErrShape, t.NFeatures, features.Width)
	}
	for i, n := range t.Nodes {
		if n.leaf() {
			if len(n.Value) < 2 {
				return fmt.Errorf("leaf %d: need counts for 2 classes, got %d", i, len(n.Value))
			}
			continue
		}
		if n.Feature < 0 || n.Feature >= t.NFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		// children always follow their parent in a flattened tree
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

func (t *Tree) leafFor(vec features.Vector) (TreeNode, error) {
	if err := checkShape(vec, t.NFeatures); err != nil {
		return TreeNode{}, err
	}
	node := t.Nodes[0]
	for !node.leaf() {
		if vec[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node, nil
}

// Classify returns the majority class of the matching leaf.
func (t *Tree) Classify(_ context.Context, vec features.Vector) (int, error) {
	leaf, err := t.leafFor(vec)
	if err != nil {
		return 0, err
	}
	if leaf.Value[1] > leaf.Value[0] {
		return 1, nil
	}
	return 0, nil
}

// PositiveProbability returns the class 1 share of the matching leaf.
func (t *Tree) PositiveProbability(_ context.Context, vec features.Vector) (float64, error) {
	leaf, err := t.leafFor(vec)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, c := range leaf.Value {
		total += c
	}
	if total == 0 {
		return 0, errors.New("empty leaf")
	}
	return leaf.Value[1] / total, nil
}
