// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree that summarizes
// the ordered transactions of a block into a single root hash.
package merkle

import (
	"errors"
	"fmt"

	"github.com/agrochain/ledger/foundation/blockchain/digest"
)

// EmptyRoot is the merkle root of a tree with no values.
const EmptyRoot = ""

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree. Bytes returns the serialized form that gets hashed.
type Hashable[T any] interface {
	Bytes() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Root         *Node[T]
	Leafs        []*Node[T]
	MerkleRoot   string
	hashStrategy digest.Strategy
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy digest.Strategy) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: digest.SHA256,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Root calculates the merkle root for the specified values without keeping
// the tree around.
func Root[T Hashable[T]](values []T, hashStrategy digest.Strategy) (string, error) {
	t, err := NewTree(values, WithHashStrategy[T](hashStrategy))
	if err != nil {
		return "", err
	}

	return t.MerkleRoot, nil
}

// Generate constructs the leafs and nodes of the tree from the specified
// data. If the tree has been generated previously, the tree is re-generated
// from scratch. An empty set of values produces the EmptyRoot.
func (t *Tree[T]) Generate(values []T) error {
	t.Root = nil
	t.Leafs = nil
	t.MerkleRoot = EmptyRoot

	if len(values) == 0 {
		return nil
	}

	leafs := make([]*Node[T], 0, len(values))
	for _, value := range values {
		hash, err := t.leafHash(value)
		if err != nil {
			return err
		}

		leafs = append(leafs, &Node[T]{
			Hash:  hash,
			Value: value,
			leaf:  true,
			Tree:  t,
		})
	}

	root := leafs[0]
	if len(leafs) > 1 {
		root = buildIntermediate(leafs, t)
	}

	t.Root = root
	t.Leafs = leafs
	t.MerkleRoot = root.Hash

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds in the leaves.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.Values())
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. An order of 0 means the proof
// hash comes first, 1 means it comes second.
//
//	h := leafHash
//	for i := range proof {
//		if order[i] == 0 { h = hash(proof[i] + h) } else { h = hash(h + proof[i]) }
//	}
//
// The calculated h should match the merkle root.
func (t *Tree[T]) Proof(data T) ([]string, []int64, error) {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		var merkleProof []string
		var order []int64
		nodeParent := node.Parent

		for nodeParent != nil {
			if nodeParent.Left == node {
				merkleProof = append(merkleProof, nodeParent.Right.Hash)
				order = append(order, 1)
			} else {
				merkleProof = append(merkleProof, nodeParent.Left.Hash)
				order = append(order, 0)
			}
			node = nodeParent
			nodeParent = nodeParent.Parent
		}

		return merkleProof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Verify validates the hashes at each level of the tree and returns an error
// if the resulting hash at the root of the tree doesn't match the root hash.
func (t *Tree[T]) Verify() error {
	if t.Root == nil {
		if t.MerkleRoot != EmptyRoot {
			return errors.New("root hash invalid")
		}
		return nil
	}

	calculatedMerkleRoot, err := t.Root.verify()
	if err != nil {
		return err
	}

	if t.MerkleRoot != calculatedMerkleRoot {
		return errors.New("root hash invalid")
	}

	return nil
}

// VerifyData indicates whether a given piece of data is in the tree and if the
// hashes are valid for that data. An error is returned if the merkle root
// calculated on the critical path for the data doesn't match.
func (t *Tree[T]) VerifyData(data T) error {
	for _, node := range t.Leafs {
		if !node.Value.Equals(data) {
			continue
		}

		hash, err := t.leafHash(node.Value)
		if err != nil {
			return err
		}

		current := node
		for current.Parent != nil {
			parent := current.Parent

			left, right := parent.Left.Hash, parent.Right.Hash
			if parent.Left == current {
				left = hash
			}
			if parent.Right == current {
				right = hash
			}

			hash = t.hashStrategy.String(left + right)
			if hash != parent.Hash {
				return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
			}

			current = parent
		}

		if hash != t.MerkleRoot {
			return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
		}

		return nil
	}

	return errors.New("unable to find data in tree")
}

// Values returns the values stored in the tree in their original order.
func (t *Tree[T]) Values() []T {
	values := make([]T, 0, len(t.Leafs))
	for _, node := range t.Leafs {
		values = append(values, node.Value)
	}

	return values
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree[T]) String() string {
	s := ""

	for _, l := range t.Leafs {
		s += fmt.Sprint(l)
		s += "\n"
	}

	return s
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// leafHash hashes the serialized form of the value.
func (t *Tree[T]) leafHash(value T) (string, error) {
	data, err := value.Bytes()
	if err != nil {
		return "", err
	}

	return t.hashStrategy(data), nil
}

// =============================================================================

// VerifyProof takes the hash of a leaf and the proof produced by Proof and
// checks it resolves to the specified root.
func VerifyProof(hashStrategy digest.Strategy, leafHash string, proof []string, order []int64, root string) bool {
	if len(proof) != len(order) {
		return false
	}

	hash := leafHash
	for i := range proof {
		switch order[i] {
		case 0:
			hash = hashStrategy.String(proof[i] + hash)
		default:
			hash = hashStrategy.String(hash + proof[i])
		}
	}

	return hash == root
}

// =============================================================================

// Node represents a node, root, or leaf in the tree. It stores pointers to its
// immediate relationships, a hash, the data if it is a leaf, and other metadata.
type Node[T Hashable[T]] struct {
	Tree   *Tree[T]
	Parent *Node[T]
	Left   *Node[T]
	Right  *Node[T]
	Hash   string
	Value  T
	leaf   bool
}

// verify walks down the tree until hitting a leaf, calculating the hash at
// each level and returning the resulting hash of the node.
func (n *Node[T]) verify() (string, error) {
	if n.leaf {
		return n.Tree.leafHash(n.Value)
	}

	leftHash, err := n.Left.verify()
	if err != nil {
		return "", err
	}

	rightHash := leftHash
	if n.Right != n.Left {
		if rightHash, err = n.Right.verify(); err != nil {
			return "", err
		}
	}

	return n.Tree.hashStrategy.String(leftHash + rightHash), nil
}

// String returns a string representation of the node.
func (n *Node[T]) String() string {
	return fmt.Sprintf("%t %s %v", n.leaf, n.Hash, n.Value)
}

// =============================================================================

// buildIntermediate is a helper function that for a given list of nodes,
// constructs the next level of the tree. A level with an odd number of nodes
// pairs the last node with itself. Returns the root node of the tree.
func buildIntermediate[T Hashable[T]](nl []*Node[T], t *Tree[T]) *Node[T] {
	nodes := make([]*Node[T], 0, (len(nl)+1)/2)

	for i := 0; i < len(nl); i += 2 {
		left, right := nl[i], nl[i]
		if i+1 < len(nl) {
			right = nl[i+1]
		}

		n := Node[T]{
			Left:  left,
			Right: right,
			Hash:  t.hashStrategy.String(left.Hash + right.Hash),
			Tree:  t,
		}

		nodes = append(nodes, &n)
		left.Parent = &n
		right.Parent = &n
	}

	if len(nodes) == 1 {
		return nodes[0]
	}

	return buildIntermediate(nodes, t)
}
