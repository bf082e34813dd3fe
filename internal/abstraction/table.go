package abstraction

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/opencoff/go-chd"

	"github.com/mkessler/nlhe-blueprint/internal/fileutil"
	"github.com/mkessler/nlhe-blueprint/internal/nlhe"
	"github.com/mkessler/nlhe-blueprint/poker"
)

// tableMagic/tableVersion guard against loading a stale or foreign bucket
// file; bump tableVersion whenever the on-disk layout changes.
const (
	tableMagic   = "NLHEBKT1"
	tableVersion = 1
)

// ProductionTable is a precomputed (street, hole, board) -> bucket lookup
// backed by a minimal perfect hash over the canonical keys seen while
// building it. Lookups for keys outside the build set are undefined: a
// missing key is not detected and gets an arbitrary bucket. Router falls
// back to FallbackBucketer only for a street with no loaded table.
type ProductionTable struct {
	street  nlhe.Street
	mphf    *chd.CHD
	buckets []uint8
}

// TableBuilder accumulates (key, bucket) pairs for one street and freezes
// them into a ProductionTable. Keys must be unique; duplicates are silently
// overwritten by the last Add call, matching how the bucket-building
// pipeline revisits canonical keys across many sampled deals.
type TableBuilder struct {
	street  nlhe.Street
	keys    [][]byte
	buckets map[string]uint8
}

func NewTableBuilder(street nlhe.Street) *TableBuilder {
	return &TableBuilder{street: street, buckets: map[string]uint8{}}
}

func (b *TableBuilder) Add(key []byte, bucket uint8) {
	s := string(key)
	if _, seen := b.buckets[s]; !seen {
		b.keys = append(b.keys, key)
	}
	b.buckets[s] = bucket
}

// Build freezes the accumulated keys into a minimal perfect hash and
// resolves each hash slot's bucket value.
func (b *TableBuilder) Build() (*ProductionTable, error) {
	cfg := &chd.Config{
		Keys: &chd.SliceIter{Keys: b.keys},
	}
	builder, err := chd.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("abstraction: building minimal perfect hash: %w", err)
	}
	mphf, err := builder.Freeze()
	if err != nil {
		return nil, fmt.Errorf("abstraction: freezing minimal perfect hash: %w", err)
	}

	buckets := make([]uint8, len(b.keys))
	for _, key := range b.keys {
		idx := mphf.Find(key)
		buckets[idx] = b.buckets[string(key)]
	}

	return &ProductionTable{street: b.street, mphf: mphf, buckets: buckets}, nil
}

// Bucket implements Bucketer. Only keys that were present at build time get
// a well-defined result; any other key gets whatever bucket its hash slot
// holds (0 if the slot is out of range), and neither Bucket nor Router
// detects such a miss.
func (t *ProductionTable) Bucket(street nlhe.Street, hole [2]poker.Card, board []poker.Card) int {
	var key []byte
	if street == nlhe.Preflop {
		key = []byte{byte(CanonicalPreflop(hole))}
	} else {
		key = CanonicalPostflopKey(street, hole, board)
	}
	idx := t.mphf.Find(key)
	if idx >= uint64(len(t.buckets)) {
		return 0
	}
	return int(t.buckets[idx])
}

// Save writes the table in a compact binary format: magic, version, street,
// key count, then the serialized MPHF followed by the bucket array.
func (t *ProductionTable) Save(path string) error {
	buf := new(bufferWriter)
	if err := writeHeader(buf, t.street, len(t.buckets)); err != nil {
		return err
	}
	if err := t.mphf.MarshalBinary(buf); err != nil {
		return fmt.Errorf("abstraction: marshaling minimal perfect hash: %w", err)
	}
	for _, v := range t.buckets {
		buf.WriteByte(v)
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// LoadProductionTable reads a table previously written by Save.
func LoadProductionTable(path string) (*ProductionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	street, n, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	mphf, err := chd.Read(r)
	if err != nil {
		return nil, fmt.Errorf("abstraction: reading minimal perfect hash: %w", err)
	}

	buckets := make([]uint8, n)
	if _, err := io.ReadFull(r, buckets); err != nil {
		return nil, fmt.Errorf("abstraction: reading bucket array: %w", err)
	}

	return &ProductionTable{street: street, mphf: mphf, buckets: buckets}, nil
}

func writeHeader(w io.Writer, street nlhe.Street, n int) error {
	if _, err := w.Write([]byte(tableMagic)); err != nil {
		return err
	}
	var hdr [3]uint32
	hdr[0] = tableVersion
	hdr[1] = uint32(street)
	hdr[2] = uint32(n)
	return binary.Write(w, binary.LittleEndian, hdr)
}

func readHeader(r io.Reader) (nlhe.Street, int, error) {
	magic := make([]byte, len(tableMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, 0, err
	}
	if string(magic) != tableMagic {
		return 0, 0, fmt.Errorf("abstraction: bad table magic %q", magic)
	}
	var hdr [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, 0, err
	}
	if hdr[0] != tableVersion {
		return 0, 0, fmt.Errorf("abstraction: unsupported table version %d", hdr[0])
	}
	return nlhe.Street(hdr[1]), int(hdr[2]), nil
}

// bufferWriter is a tiny growable byte buffer implementing io.Writer and
// io.ByteWriter without pulling in bytes.Buffer's larger surface.
type bufferWriter struct {
	data []byte
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bufferWriter) WriteByte(c byte) error {
	b.data = append(b.data, c)
	return nil
}

func (b *bufferWriter) Bytes() []byte { return b.data }
