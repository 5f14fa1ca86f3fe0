// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.

package merkle_test

import (
	"testing"

	"github.com/agrochain/ledger/foundation/blockchain/digest"
	"github.com/agrochain/ledger/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data is a simple string value for the merkle tree.
type Data struct {
	x string
}

// Bytes returns the serialized form of the value.
func (d Data) Bytes() ([]byte, error) {
	return []byte(d.x), nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func values(xs ...string) []Data {
	out := make([]Data, len(xs))
	for i, x := range xs {
		out[i] = Data{x: x}
	}
	return out
}

// =============================================================================

func Test_MerkleRoot(t *testing.T) {
	h := digest.Strategy(digest.SHA256).String

	type table struct {
		name   string
		data   []Data
		expect string
	}

	tt := []table{
		{"empty", values(), merkle.EmptyRoot},
		{"single", values("a"), h("a")},
		{"pair", values("a", "b"), h(h("a") + h("b"))},
		{"odd", values("a", "b", "c"), h(h(h("a")+h("b")) + h(h("c")+h("c")))},
		{"five", values("a", "b", "c", "d", "e"), func() string {
			ab := h(h("a") + h("b"))
			cd := h(h("c") + h("d"))
			ee := h(h("e") + h("e"))
			abcd := h(ab + cd)
			eeee := h(ee + ee)
			return h(abcd + eeee)
		}()},
	}

	t.Log("Given the need to calculate merkle roots.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %d values.", testID, len(tst.data))
				{
					tree, err := merkle.NewTree(tst.data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to build the tree.", success, testID)

					if tree.MerkleRoot != tst.expect {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, tree.MerkleRoot)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, tst.expect)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right root.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right root.", success, testID)

					if err := tree.Verify(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to verify the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to verify the tree.", success, testID)

					if got := len(tree.Values()); got != len(tst.data) {
						t.Fatalf("\t%s\tTest %d:\tShould get back %d values, got %d.", failed, testID, len(tst.data), got)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the original values.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Determinism(t *testing.T) {
	r1, err := merkle.Root(values("a", "b", "c"), digest.SHA256)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to calculate the root: %v", failed, err)
	}

	r2, err := merkle.Root(values("a", "b", "c"), digest.SHA256)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to calculate the root: %v", failed, err)
	}

	if r1 != r2 {
		t.Fatalf("\t%s\tShould get the same root for the same values.", failed)
	}
	t.Logf("\t%s\tShould get the same root for the same values.", success)

	r3, err := merkle.Root(values("a", "B", "c"), digest.SHA256)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to calculate the root: %v", failed, err)
	}

	if r1 == r3 {
		t.Fatalf("\t%s\tShould get a different root when a value changes.", failed)
	}
	t.Logf("\t%s\tShould get a different root when a value changes.", success)
}

func Test_Proof(t *testing.T) {
	data := values("a", "b", "c", "d", "e")

	tree, err := merkle.NewTree(data, merkle.WithHashStrategy[Data](digest.Keccak256))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
	}

	t.Log("Given the need to prove values are part of the tree.")
	{
		for i, d := range data {
			proof, order, err := tree.Proof(d)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get a proof: %v", failed, i, err)
			}

			if !merkle.VerifyProof(digest.Keccak256, digest.Strategy(digest.Keccak256).String(d.x), proof, order, tree.MerkleRoot) {
				t.Fatalf("\t%s\tTest %d:\tShould be able to verify the proof for %q.", failed, i, d.x)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to verify the proof for %q.", success, i, d.x)

			if err := tree.VerifyData(d); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to verify the data: %v", failed, i, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to verify the data.", success, i)
		}

		if _, _, err := tree.Proof(Data{x: "z"}); err == nil {
			t.Fatalf("\t%s\tShould not get a proof for a missing value.", failed)
		}
		t.Logf("\t%s\tShould not get a proof for a missing value.", success)
	}
}

func Test_Tampered(t *testing.T) {
	tree, err := merkle.NewTree(values("a", "b", "c"))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
	}

	tree.Leafs[1].Value = Data{x: "x"}

	if err := tree.Verify(); err == nil {
		t.Fatalf("\t%s\tShould detect a tampered leaf.", failed)
	}
	t.Logf("\t%s\tShould detect a tampered leaf.", success)

	if err := tree.Rebuild(); err != nil {
		t.Fatalf("\t%s\tShould be able to rebuild the tree: %v", failed, err)
	}

	if err := tree.Verify(); err != nil {
		t.Fatalf("\t%s\tShould verify after a rebuild: %v", failed, err)
	}
	t.Logf("\t%s\tShould verify after a rebuild.", success)
}
