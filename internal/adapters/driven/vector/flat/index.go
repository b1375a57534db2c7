// Package flat implements the vector index port as per-subject flat
// files of packed float32 rows with exhaustive inner-product search.
// For the corpus sizes this tool handles (hundreds to low thousands of
// questions per subject) a linear scan is exact and fast enough that an
// approximate index would only add moving parts.
package flat

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/askedlabs/asked-cli/internal/core/domain"
	"github.com/askedlabs/asked-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// File layout: a fixed header followed by count*dim little-endian
// float32 values. The header's count field is the committed row count;
// a crash between appends and Flush leaves the old count in place, so
// reopening recovers exactly the committed prefix.
const (
	vecMagic   uint32 = 0x41534b56 // "ASKV"
	vecVersion uint32 = 1
	headerSize        = 16
)

// Index is a file-backed append-only vector store partitioned by
// subject slug. Appends are staged in memory and become durable on
// Flush, which rewrites the partition file atomically.
type Index struct {
	mu         sync.RWMutex
	dir        string
	partitions map[string]*filePartition
}

type filePartition struct {
	vectors   [][]float32
	committed int
}

// NewIndex creates a vector index rooted at dir, creating it if needed.
func NewIndex(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating vector directory: %w", err)
	}
	return &Index{
		dir:        dir,
		partitions: make(map[string]*filePartition),
	}, nil
}

// Append stages a vector in a subject's partition and returns its id.
func (x *Index) Append(_ context.Context, subject string, vector []float32) (int64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	part, err := x.partition(subject)
	if err != nil {
		return 0, err
	}
	if len(part.vectors) > 0 && len(part.vectors[0]) != len(vector) {
		return 0, domain.ErrDimensionMismatch
	}

	id := int64(len(part.vectors))
	part.vectors = append(part.vectors, vector)
	return id, nil
}

// RollbackLast discards the most recently staged vector.
func (x *Index) RollbackLast(_ context.Context, subject string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	part, err := x.partition(subject)
	if err != nil {
		return err
	}
	if len(part.vectors) == part.committed {
		return domain.ErrInvalidInput
	}
	part.vectors = part.vectors[:len(part.vectors)-1]
	return nil
}

// Search returns up to k hits ordered by descending inner product.
func (x *Index) Search(_ context.Context, subject string, query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	part, err := x.partition(subject)
	if err != nil {
		return nil, err
	}

	hits := make([]driven.VectorHit, 0, len(part.vectors))
	for i, vec := range part.vectors {
		if len(vec) != len(query) {
			return nil, domain.ErrDimensionMismatch
		}
		var score float64
		for j := range vec {
			score += float64(vec[j]) * float64(query[j])
		}
		hits = append(hits, driven.VectorHit{ID: int64(i), Score: score})
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of vectors in a subject's partition.
func (x *Index) Count(_ context.Context, subject string) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	part, err := x.partition(subject)
	if err != nil {
		return 0, err
	}
	return len(part.vectors), nil
}

// Flush makes all staged vectors for a subject durable. The partition
// file is rewritten to a temp file, synced, then renamed over the old
// one so the file never holds a partially written state.
func (x *Index) Flush(_ context.Context, subject string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	part, err := x.partition(subject)
	if err != nil {
		return err
	}
	if err := x.writePartition(domain.Slug(subject), part); err != nil {
		return err
	}
	part.committed = len(part.vectors)
	return nil
}

// Reset removes a subject's partition and its file.
func (x *Index) Reset(_ context.Context, subject string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	slug := domain.Slug(subject)
	delete(x.partitions, slug)
	if err := os.Remove(x.partitionPath(slug)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing vector file: %w", err)
	}
	return nil
}

// Close releases resources. Durability is handled by explicit Flush
// calls, so there is nothing to write here.
func (x *Index) Close() error {
	return nil
}

// partition returns the subject's partition, loading it from disk on
// first access. Callers hold the lock.
func (x *Index) partition(subject string) (*filePartition, error) {
	slug := domain.Slug(subject)
	if part, ok := x.partitions[slug]; ok {
		return part, nil
	}

	part, err := x.loadPartition(slug)
	if err != nil {
		return nil, err
	}
	x.partitions[slug] = part
	return part, nil
}

func (x *Index) partitionPath(slug string) string {
	return filepath.Join(x.dir, slug+".vec")
}

// loadPartition reads the committed prefix of a partition file.
func (x *Index) loadPartition(slug string) (*filePartition, error) {
	f, err := os.Open(x.partitionPath(slug))
	if errors.Is(err, os.ErrNotExist) {
		return &filePartition{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening vector file: %w", err)
	}
	defer f.Close()

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("reading vector file header: %w", err)
	}

	magic := binary.LittleEndian.Uint32(header[0:])
	version := binary.LittleEndian.Uint32(header[4:])
	dim := int(binary.LittleEndian.Uint32(header[8:]))
	count := int(binary.LittleEndian.Uint32(header[12:]))
	if magic != vecMagic || version != vecVersion {
		return nil, fmt.Errorf("%w: unrecognized vector file %s.vec", domain.ErrVectorIndexUnavailable, slug)
	}

	part := &filePartition{vectors: make([][]float32, 0, count)}
	row := make([]byte, dim*4)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(f, row); err != nil {
			return nil, fmt.Errorf("reading vector row %d: %w", i, err)
		}
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[j*4:]))
		}
		part.vectors = append(part.vectors, vec)
	}
	part.committed = len(part.vectors)
	return part, nil
}

// writePartition writes the full partition atomically. Callers hold
// the lock.
func (x *Index) writePartition(slug string, part *filePartition) error {
	dim := 0
	if len(part.vectors) > 0 {
		dim = len(part.vectors[0])
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:], vecMagic)
	binary.LittleEndian.PutUint32(header[4:], vecVersion)
	binary.LittleEndian.PutUint32(header[8:], uint32(dim))
	binary.LittleEndian.PutUint32(header[12:], uint32(len(part.vectors)))

	path := x.partitionPath(slug)
	tmp, err := os.CreateTemp(x.dir, slug+".vec.tmp*")
	if err != nil {
		return fmt.Errorf("creating temp vector file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("writing vector file header: %w", err)
	}

	row := make([]byte, dim*4)
	for _, vec := range part.vectors {
		for j, v := range vec {
			binary.LittleEndian.PutUint32(row[j*4:], math.Float32bits(v))
		}
		if _, err := tmp.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("writing vector row: %w", err)
		}
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing vector file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing vector file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing vector file: %w", err)
	}
	return nil
}
