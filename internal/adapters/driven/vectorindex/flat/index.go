// Package flat provides an exact, brute-force vector index with one
// persisted index per document.
package flat

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

var docIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// entry is an installed document index. It is never mutated after install.
type entry struct {
	dims int
	data []float32 // rows * dims, row-major
	meta []domain.SubChunk
}

func (e *entry) rows() int {
	return len(e.meta)
}

// Index stores document indexes in memory and under dir on disk.
type Index struct {
	dir string

	mu      sync.RWMutex
	entries map[string]*entry

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	loads singleflight.Group
}

// New creates an index rooted at dir, creating the directory if needed.
func New(dir string) (*Index, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: index directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return &Index{
		dir:     dir,
		entries: make(map[string]*entry),
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// Build validates and persists vectors and metadata, then installs them for docID.
func (x *Index) Build(ctx context.Context, docID string, vectors [][]float32, meta []domain.SubChunk) error {
	if err := validateID(docID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(vectors) == 0 {
		return fmt.Errorf("%w: no vectors for %s", domain.ErrIndexBuild, docID)
	}
	if len(vectors) != len(meta) {
		return fmt.Errorf("%w: %d vectors but %d metadata rows", domain.ErrIndexBuild, len(vectors), len(meta))
	}
	dims := len(vectors[0])
	if dims == 0 {
		return fmt.Errorf("%w: zero-length vector", domain.ErrIndexBuild)
	}
	data := make([]float32, 0, dims*len(vectors))
	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("%w: row %d has %d dimensions, expected %d", domain.ErrIndexBuild, i, len(v), dims)
		}
		data = append(data, v...)
	}
	e := &entry{dims: dims, data: data, meta: slices.Clone(meta)}

	lock := x.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	if err := x.persist(docID, e); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIndexBuild, err)
	}

	x.mu.Lock()
	x.entries[docID] = e
	x.mu.Unlock()

	logger.Debug("index %s built: %d rows x %d dims", docID, e.rows(), dims)
	return nil
}

// persist stages both artifacts before renaming either, so a failed write
// leaves the previous artifacts untouched. If the second rename fails the
// pair on disk no longer matches, so both artifacts and any resident entry
// are dropped and docID reads as not indexed. Callers hold the doc lock.
func (x *Index) persist(docID string, e *entry) error {
	indexPath, metaPath := x.paths(docID)
	indexTmp, err := stageIndexFile(indexPath, e.dims, e.data)
	if err != nil {
		return err
	}
	metaTmp, err := stageMetaFile(metaPath, e.meta)
	if err != nil {
		_ = os.Remove(indexTmp)
		return err
	}

	if err := os.Rename(indexTmp, indexPath); err != nil {
		_ = os.Remove(indexTmp)
		_ = os.Remove(metaTmp)
		return fmt.Errorf("commit %s: %w", filepath.Base(indexPath), err)
	}
	if err := os.Rename(metaTmp, metaPath); err != nil {
		_ = os.Remove(metaTmp)
		_ = os.Remove(indexPath)
		_ = os.Remove(metaPath)
		x.mu.Lock()
		delete(x.entries, docID)
		x.mu.Unlock()
		return fmt.Errorf("commit %s: %w", filepath.Base(metaPath), err)
	}
	return nil
}

// Search returns the topK rows nearest to query, loading the index if needed.
func (x *Index) Search(ctx context.Context, docID string, query []float32, topK int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := x.entry(docID)
	if err != nil {
		return nil, err
	}
	if topK <= 0 || e.rows() == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != e.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrDimensionMismatch, len(query), e.dims)
	}

	hits := make([]driven.VectorHit, e.rows())
	for row := range hits {
		d := euclidean(query, e.data[row*e.dims:(row+1)*e.dims])
		hits[row] = driven.VectorHit{
			Row:       row,
			Distance:  d,
			Relevance: 1 / (1 + d),
			Metadata:  e.meta[row],
		}
	}
	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// Metadata returns a copy of the stored sub-chunks for docID in row order.
func (x *Index) Metadata(ctx context.Context, docID string) ([]domain.SubChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := x.entry(docID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.meta), nil
}

// Exists reports whether docID is resident or both artifacts are on disk.
func (x *Index) Exists(_ context.Context, docID string) (bool, error) {
	if err := validateID(docID); err != nil {
		return false, err
	}
	if x.resident(docID) != nil {
		return true, nil
	}
	indexPath, metaPath := x.paths(docID)
	for _, p := range []string{indexPath, metaPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return false, nil
			}
			return false, fmt.Errorf("stat %s: %w", filepath.Base(p), err)
		}
	}
	return true, nil
}

// Delete removes docID from memory and disk. Missing indexes are ignored.
func (x *Index) Delete(_ context.Context, docID string) error {
	if err := validateID(docID); err != nil {
		return err
	}
	lock := x.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	x.mu.Lock()
	delete(x.entries, docID)
	x.mu.Unlock()

	indexPath, metaPath := x.paths(docID)
	var errs []error
	for _, p := range []string{indexPath, metaPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("delete index %s: %w", docID, err)
	}
	return nil
}

// Close drops all resident indexes. Persisted artifacts are kept.
func (x *Index) Close() error {
	x.mu.Lock()
	clear(x.entries)
	x.mu.Unlock()
	return nil
}

// entry returns the resident entry for docID, loading it from disk at most
// once across concurrent callers.
func (x *Index) entry(docID string) (*entry, error) {
	if err := validateID(docID); err != nil {
		return nil, err
	}
	if e := x.resident(docID); e != nil {
		return e, nil
	}
	v, err, _ := x.loads.Do(docID, func() (any, error) {
		return x.load(docID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entry), nil
}

func (x *Index) resident(docID string) *entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.entries[docID]
}

func (x *Index) load(docID string) (*entry, error) {
	lock := x.docLock(docID)
	lock.Lock()
	defer lock.Unlock()

	// A Build may have installed the entry while we waited.
	if e := x.resident(docID); e != nil {
		return e, nil
	}

	indexPath, metaPath := x.paths(docID)
	dims, data, err := readIndexFile(indexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, docID)
		}
		return nil, fmt.Errorf("load index %s: %w", docID, err)
	}
	meta, err := readMetaFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, docID)
		}
		return nil, fmt.Errorf("load metadata %s: %w", docID, err)
	}
	if len(meta)*dims != len(data) {
		return nil, fmt.Errorf("load index %s: %d metadata rows for %d vectors", docID, len(meta), len(data)/dims)
	}

	e := &entry{dims: dims, data: data, meta: meta}
	x.mu.Lock()
	x.entries[docID] = e
	x.mu.Unlock()

	logger.Debug("index %s loaded from disk: %d rows", docID, e.rows())
	return e, nil
}

func (x *Index) docLock(docID string) *sync.Mutex {
	x.locksMu.Lock()
	defer x.locksMu.Unlock()
	l, ok := x.locks[docID]
	if !ok {
		l = &sync.Mutex{}
		x.locks[docID] = l
	}
	return l
}

func (x *Index) paths(docID string) (indexPath, metaPath string) {
	return filepath.Join(x.dir, docID+indexExt), filepath.Join(x.dir, docID+metaExt)
}

func validateID(docID string) error {
	if !docIDPattern.MatchString(docID) {
		return fmt.Errorf("%w: invalid document id %q", domain.ErrInvalidInput, docID)
	}
	return nil
}

func euclidean(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
