package models

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/RyanBlaney/sonido-genre/errs"
)

// NoChild is the child id of a missing branch
const NoChild = -1

// RootID is the id traversal starts from
const RootID = 0

// TreeNode is one row of a decision tree. Split nodes carry a feature index
// and threshold; leaves carry a class label.
type TreeNode struct {
	Threshold float64
	FeatureID int
	Left      int
	Right     int
	Class     string
}

// HasChildren reports whether either branch is set
func (n TreeNode) HasChildren() bool {
	return n.Left != NoChild || n.Right != NoChild
}

// DecisionTree stores nodes in an arena keyed by their serialized id.
// MaxFeatureID and Depth are derived lazily and cached until the next
// InsertNode, RemoveNode or Clear. The zero value is an empty tree.
type DecisionTree struct {
	nodes map[int]TreeNode

	mu           sync.Mutex
	cached       bool
	maxFeatureID int
	depth        int
}

// NewDecisionTree returns an empty tree
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{nodes: make(map[int]TreeNode)}
}

// InsertNode adds node under id
func (t *DecisionTree) InsertNode(id int, node TreeNode) error {
	if t.nodes == nil {
		t.nodes = make(map[int]TreeNode)
	}
	if _, ok := t.nodes[id]; ok {
		if id == RootID {
			return fmt.Errorf("%w: tree already has a root node", errs.ErrStructural)
		}
		return fmt.Errorf("%w: tree already has a node with id %d", errs.ErrStructural, id)
	}
	t.nodes[id] = node
	t.invalidate()
	return nil
}

// RemoveNode deletes a leaf
func (t *DecisionTree) RemoveNode(id int) error {
	node, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: tree has no node with id %d", errs.ErrNotFound, id)
	}
	if node.HasChildren() {
		return fmt.Errorf("%w: node %d still has children", errs.ErrStructural, id)
	}
	delete(t.nodes, id)
	t.invalidate()
	return nil
}

// Node returns the node stored under id
func (t *DecisionTree) Node(id int) (TreeNode, error) {
	node, ok := t.nodes[id]
	if !ok {
		return TreeNode{}, fmt.Errorf("%w: tree has no node with id %d", errs.ErrNotFound, id)
	}
	return node, nil
}

// Clear removes every node
func (t *DecisionTree) Clear() {
	clear(t.nodes)
	t.invalidate()
}

// Len returns the number of nodes
func (t *DecisionTree) Len() int {
	return len(t.nodes)
}

// IDs returns the node ids in ascending order
func (t *DecisionTree) IDs() []int {
	ids := make([]int, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (t *DecisionTree) invalidate() {
	t.mu.Lock()
	t.cached = false
	t.mu.Unlock()
}

// MaxFeatureID returns the largest feature index referenced by any node,
// or −1 when none is
func (t *DecisionTree) MaxFeatureID() int {
	t.refresh()
	return t.maxFeatureID
}

// Depth returns the number of levels below and including the root;
// an empty tree has depth 0
func (t *DecisionTree) Depth() int {
	t.refresh()
	return t.depth
}

func (t *DecisionTree) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cached {
		return
	}

	t.maxFeatureID = NoChild
	for _, n := range t.nodes {
		t.maxFeatureID = max(t.maxFeatureID, n.FeatureID)
	}
	t.depth = t.computeDepth()
	t.cached = true
}

// computeDepth walks from the root; missing children and revisited nodes
// end a branch
func (t *DecisionTree) computeDepth() int {
	if _, ok := t.nodes[RootID]; !ok {
		return 0
	}

	visiting := make(map[int]bool)
	var walk func(id int) int
	walk = func(id int) int {
		node, ok := t.nodes[id]
		if id == NoChild || !ok || visiting[id] {
			return 0
		}
		visiting[id] = true
		d := max(walk(node.Left), walk(node.Right)) + 1
		visiting[id] = false
		return d
	}
	return walk(RootID)
}

// Predict walks from the root, going left when features[feature] <= threshold,
// until it reaches a node without children or with a negative feature index.
func (t *DecisionTree) Predict(features []float64) (string, error) {
	if maxID := t.MaxFeatureID(); maxID >= len(features) {
		return "", fmt.Errorf("%w: tree references feature %d, vector has %d values",
			errs.ErrSizeMismatch, maxID, len(features))
	}

	node, ok := t.nodes[RootID]
	if !ok {
		return "", fmt.Errorf("%w: tree has no root node", errs.ErrNotFound)
	}

	for steps := 0; node.HasChildren() && node.FeatureID >= 0; steps++ {
		if steps >= len(t.nodes) {
			return "", fmt.Errorf("%w: traversal exceeded %d nodes, tree has a cycle", errs.ErrStructural, len(t.nodes))
		}

		next := node.Right
		if features[node.FeatureID] <= node.Threshold {
			next = node.Left
		}

		child, ok := t.nodes[next]
		if !ok {
			return "", fmt.Errorf("%w: tree has no node with id %d", errs.ErrNotFound, next)
		}
		node = child
	}

	return node.Class, nil
}

func (t *DecisionTree) String() string {
	return fmt.Sprintf("DecisionTree(depth=%d, nodes=%d)", t.Depth(), t.Len())
}

// LoadDecisionTree reads rows of node_id, threshold, feature_id, left, right, class
func LoadDecisionTree(r io.Reader, name string) (*DecisionTree, error) {
	tb := newTable(name, r)
	tree := NewDecisionTree()

	for {
		rec, err := tb.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := tb.require(rec, 5, "node"); err != nil {
			return nil, err
		}

		id, err := tb.int(rec, 0, "node_id")
		if err != nil {
			return nil, err
		}
		var node TreeNode
		if node.Threshold, err = tb.float(rec, 1, "threshold"); err != nil {
			return nil, err
		}
		if node.FeatureID, err = tb.int(rec, 2, "feature_id"); err != nil {
			return nil, err
		}
		if node.Left, err = tb.int(rec, 3, "left_id"); err != nil {
			return nil, err
		}
		if node.Right, err = tb.int(rec, 4, "right_id"); err != nil {
			return nil, err
		}
		if len(rec) > 5 {
			node.Class = label(rec[5])
		}

		if err := tree.InsertNode(id, node); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", name, tb.line, err)
		}
	}

	if tree.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no nodes", errs.ErrFormat, name)
	}
	return tree, nil
}

// LoadDecisionTreeFile reads a tree table from path
func LoadDecisionTreeFile(path string) (*DecisionTree, error) {
	f, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadDecisionTree(f, filepath.Base(path))
}
