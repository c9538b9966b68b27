package tsfile

import (
	"bytes"
	"io"
	"sort"
)

// metaIndexNodeType distinguishes the two-tier metadata index: a
// measurement tree per device (LEAF/INTERNAL_MEASUREMENT) nested under a
// device tree per table (LEAF/INTERNAL_DEVICE).
type metaIndexNodeType byte

const (
	leafMeasurement metaIndexNodeType = iota
	internalMeasurement
	leafDevice
	internalDevice
)

// metaIndexChild is one entry of a MetaIndexNode: a search key and the
// absolute file offset of whatever it points at — a TimeseriesIndex block
// for a LEAF_MEASUREMENT child, a measurement-tree root for a LEAF_DEVICE
// child, or another MetaIndexNode for an internal child.
type metaIndexChild struct {
	Key    string
	Offset int64
}

// metaIndexNode is one node of the tree, written once at a fixed file
// offset and never rewritten — children are listed in ascending Key
// order so a reader can binary-search without loading siblings.
type metaIndexNode struct {
	Type      metaIndexNodeType
	Children  []metaIndexChild
	EndOffset int64 // the last child's Offset; it does not mark where that child's bytes end
}

func writeMetaIndexNode(w *bytes.Buffer, n metaIndexNode) error {
	if err := w.WriteByte(byte(n.Type)); err != nil {
		return err
	}
	if err := writeUvarint(w, uint64(len(n.Children))); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := writeString(w, c.Key); err != nil {
			return err
		}
		if err := writeVarint(w, c.Offset); err != nil {
			return err
		}
	}
	return writeVarint(w, n.EndOffset)
}

func readMetaIndexNode(r byteReader) (metaIndexNode, error) {
	typeByte, err := r.ReadByte()
	if err != nil {
		return metaIndexNode{}, err
	}
	count, err := readUvarint(r)
	if err != nil {
		return metaIndexNode{}, err
	}
	children := make([]metaIndexChild, count)
	for i := range children {
		key, err := readString(r)
		if err != nil {
			return metaIndexNode{}, err
		}
		offset, err := readVarint(r)
		if err != nil {
			return metaIndexNode{}, err
		}
		children[i] = metaIndexChild{Key: key, Offset: offset}
	}
	endOffset, err := readVarint(r)
	if err != nil {
		return metaIndexNode{}, err
	}
	return metaIndexNode{Type: metaIndexNodeType(typeByte), Children: children, EndOffset: endOffset}, nil
}

// binarySearchChildren returns the child covering key: with exact true it
// requires Key == key (used at a measurement leaf, where the key space is
// flat); with exact false it returns the last child whose Key <= key
// (descending an internal node toward the child whose range contains
// key).
func binarySearchChildren(children []metaIndexChild, key string, exact bool) (metaIndexChild, bool) {
	i := sort.Search(len(children), func(i int) bool { return children[i].Key > key })
	if exact {
		idx := i - 1
		if idx < 0 || children[idx].Key != key {
			if i < len(children) && children[i].Key == key {
				return children[i], true
			}
			return metaIndexChild{}, false
		}
		return children[idx], true
	}
	if i == 0 {
		return metaIndexChild{}, false
	}
	return children[i-1], true
}

// treeWriter accumulates nodes of one tier of the index and assigns each
// an absolute file offset as it's appended, via appendBytes.
type treeWriter struct {
	appendBytes func([]byte) (int64, error) // returns the offset the bytes were written at
}

// buildTree writes leaves in groups of at most maxDegree as leaf nodes of
// leafType, then recursively groups the resulting (firstKey, nodeOffset)
// pairs into internal nodes of internalType until one root remains,
// returning the root's offset. leaves must already be sorted by Key.
func (tw *treeWriter) buildTree(leafType, internalType metaIndexNodeType, leaves []metaIndexChild, maxDegree int) (int64, error) {
	if len(leaves) == 0 {
		return 0, newErr(ErrCodeMetaError, "cannot build index tree with no entries")
	}

	level := leaves
	levelType := leafType
	for {
		var nextLevel []metaIndexChild
		for start := 0; start < len(level); start += maxDegree {
			end := start + maxDegree
			if end > len(level) {
				end = len(level)
			}
			group := level[start:end]
			node := metaIndexNode{Type: levelType, Children: group, EndOffset: group[len(group)-1].Offset}
			offset, err := tw.writeNode(node)
			if err != nil {
				return 0, err
			}
			nextLevel = append(nextLevel, metaIndexChild{Key: group[0].Key, Offset: offset})
		}
		if len(nextLevel) == 1 && levelType != leafType {
			return nextLevel[0].Offset, nil
		}
		if len(nextLevel) == 1 {
			return nextLevel[0].Offset, nil
		}
		level = nextLevel
		levelType = internalType
	}
}

func (tw *treeWriter) writeNode(n metaIndexNode) (int64, error) {
	buf := &bytes.Buffer{}
	if err := writeMetaIndexNode(buf, n); err != nil {
		return 0, err
	}
	return tw.appendBytes(buf.Bytes())
}

// metaIndexReader performs lazy, offset-addressed descent into a tree
// whose nodes live at arbitrary offsets in a random-access file — only
// the nodes on the search path are ever read into memory.
type metaIndexReader struct {
	src      io.ReaderAt
	fileSize int64
}

func (mr *metaIndexReader) readNodeAt(offset int64) (metaIndexNode, error) {
	// A node's serialized length isn't known up front: read everything
	// from offset to end-of-file and let readMetaIndexNode stop consuming
	// once the node is fully decoded.
	length := mr.fileSize - offset
	if length <= 0 {
		return metaIndexNode{}, newErr(ErrCodeCorrupted, "meta index node offset beyond end of file")
	}
	buf := make([]byte, length)
	n, err := mr.src.ReadAt(buf, offset)
	if err != nil && n == 0 {
		return metaIndexNode{}, wrapErr(ErrCodeFileRead, "reading meta index node", err)
	}
	return readMetaIndexNode(newByteReader(bytes.NewReader(buf[:n])))
}

// walkAllLeaves returns every leaf child reachable from rootOffset, in
// ascending key order — a full scan of the tree, used by DEVICE-ordered
// queries that must visit every device or every measurement.
func (mr *metaIndexReader) walkAllLeaves(rootOffset int64) ([]metaIndexChild, error) {
	node, err := mr.readNodeAt(rootOffset)
	if err != nil {
		return nil, err
	}
	if node.Type == leafMeasurement || node.Type == leafDevice {
		return node.Children, nil
	}
	var out []metaIndexChild
	for _, c := range node.Children {
		children, err := mr.walkAllLeaves(c.Offset)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}

// descend walks from a tree root to the leaf node whose Children cover
// key, returning that leaf node.
func (mr *metaIndexReader) descend(rootOffset int64, key string) (metaIndexNode, error) {
	offset := rootOffset
	for {
		node, err := mr.readNodeAt(offset)
		if err != nil {
			return metaIndexNode{}, err
		}
		if node.Type == leafMeasurement || node.Type == leafDevice {
			return node, nil
		}
		child, ok := binarySearchChildren(node.Children, key, false)
		if !ok {
			return metaIndexNode{}, newErr(ErrCodeNotExist, "key out of index range: "+key)
		}
		offset = child.Offset
	}
}
