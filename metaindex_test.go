package tsfile

import (
	"bytes"
	"fmt"
	"sort"
	"testing"
)

func buildTestTree(t *testing.T, leaves []metaIndexChild, maxDegree int) (*bytes.Buffer, int64) {
	t.Helper()
	storage := &bytes.Buffer{}
	tw := &treeWriter{
		appendBytes: func(b []byte) (int64, error) {
			offset := int64(storage.Len())
			storage.Write(b)
			return offset, nil
		},
	}
	root, err := tw.buildTree(leafMeasurement, internalMeasurement, leaves, maxDegree)
	if err != nil {
		t.Fatalf("buildTree: %v", err)
	}
	return storage, root
}

func TestMetaIndexNodeWireRoundTrip(t *testing.T) {
	n := metaIndexNode{
		Type: leafDevice,
		Children: []metaIndexChild{
			{Key: "a", Offset: 10},
			{Key: "b", Offset: 200},
		},
		EndOffset: 500,
	}
	buf := &bytes.Buffer{}
	if err := writeMetaIndexNode(buf, n); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readMetaIndexNode(newByteReader(buf))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != n.Type || got.EndOffset != n.EndOffset || len(got.Children) != len(n.Children) {
		t.Fatalf("got %+v want %+v", got, n)
	}
	for i := range n.Children {
		if got.Children[i] != n.Children[i] {
			t.Fatalf("child[%d] = %+v, want %+v", i, got.Children[i], n.Children[i])
		}
	}
}

func TestBuildTreeAndWalkAllLeaves(t *testing.T) {
	var leaves []metaIndexChild
	for i := 0; i < 37; i++ {
		leaves = append(leaves, metaIndexChild{Key: fmt.Sprintf("m%02d", i), Offset: int64(i * 100)})
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Key < leaves[j].Key })

	storage, root := buildTestTree(t, leaves, 4)
	mr := &metaIndexReader{src: bytes.NewReader(storage.Bytes()), fileSize: int64(storage.Len())}

	got, err := mr.walkAllLeaves(root)
	if err != nil {
		t.Fatalf("walkAllLeaves: %v", err)
	}
	if len(got) != len(leaves) {
		t.Fatalf("got %d leaves, want %d", len(got), len(leaves))
	}
	for i := range leaves {
		if got[i] != leaves[i] {
			t.Fatalf("leaf[%d] = %+v, want %+v", i, got[i], leaves[i])
		}
	}
}

func TestBuildTreeSingleLevelWhenSmall(t *testing.T) {
	leaves := []metaIndexChild{
		{Key: "x", Offset: 1},
		{Key: "y", Offset: 2},
	}
	storage, root := buildTestTree(t, leaves, 256)
	mr := &metaIndexReader{src: bytes.NewReader(storage.Bytes()), fileSize: int64(storage.Len())}

	node, err := mr.readNodeAt(root)
	if err != nil {
		t.Fatalf("readNodeAt: %v", err)
	}
	if node.Type != leafMeasurement {
		t.Fatalf("expected a single leaf node at root when leaves fit in one group, got type %v", node.Type)
	}
}

func TestDescendFindsExactLeaf(t *testing.T) {
	var leaves []metaIndexChild
	for i := 0; i < 20; i++ {
		leaves = append(leaves, metaIndexChild{Key: fmt.Sprintf("k%02d", i), Offset: int64(i)})
	}
	storage, root := buildTestTree(t, leaves, 3)
	mr := &metaIndexReader{src: bytes.NewReader(storage.Bytes()), fileSize: int64(storage.Len())}

	leaf, err := mr.descend(root, "k07")
	if err != nil {
		t.Fatalf("descend: %v", err)
	}
	child, found := binarySearchChildren(leaf.Children, "k07", true)
	if !found {
		t.Fatal("expected to find k07 in the descended leaf")
	}
	if child.Offset != 7 {
		t.Fatalf("offset = %d, want 7", child.Offset)
	}

	if _, found := binarySearchChildren(leaf.Children, "does-not-exist", true); found {
		t.Fatal("did not expect a match for an absent key")
	}
}

func TestBinarySearchChildrenInternalDescent(t *testing.T) {
	children := []metaIndexChild{
		{Key: "a", Offset: 0},
		{Key: "m", Offset: 1},
		{Key: "z", Offset: 2},
	}
	got, ok := binarySearchChildren(children, "f", false)
	if !ok || got.Key != "a" {
		t.Fatalf("got %+v, want the last child <= key", got)
	}
	got, ok = binarySearchChildren(children, "z", false)
	if !ok || got.Key != "z" {
		t.Fatalf("got %+v, want z", got)
	}
	if _, ok := binarySearchChildren(children, "0", false); ok {
		t.Fatal("a key before every child must not match")
	}
}
