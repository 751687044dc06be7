package driver

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"hasheq/internal/diag"
	"hasheq/internal/project"
	"hasheq/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит результаты генерации по ключу входов на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is everything `gen` and `check` need from a previous run of the
// same inputs: the generated file and the diagnostics.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Package     string
	Types       []string // generated types, declaration order
	Output      []byte
	Diagnostics []CachedDiagnostic
}

// CachedDiagnostic is a diag.Diagnostic whose spans refer to input files by their
// position in the package's file list instead of by FileID.
type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Primary  CachedSpan
	Notes    []CachedNote
}

// CachedNote mirrors diag.Note.
type CachedNote struct {
	Span CachedSpan
	Msg  string
}

// CachedSpan is a span relative to the package's file list. File -1 means no span.
type CachedSpan struct {
	File       int
	Start, End uint32
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt opens a cache rooted at dir, creating it if needed.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key project.Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог "pkgs", чтобы кэш было удобно чистить руками
	return filepath.Join(c.dir, "pkgs", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key project.Digest, payload *DiskPayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		// после успешного Rename файла уже нет
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads and deserializes a payload from the disk cache. A payload written by
// another schema version counts as a miss.
func (c *DiskCache) Get(key project.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим его целиком
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// encodeDiagnostics converts bag items into cacheable form.
func encodeDiagnostics(items []diag.Diagnostic, files []source.FileID) []CachedDiagnostic {
	index := make(map[source.FileID]int, len(files))
	for i, id := range files {
		index[id] = i
	}
	encodeSpan := func(sp source.Span) CachedSpan {
		i, ok := index[sp.File]
		if !ok || !sp.Valid() {
			return CachedSpan{File: -1}
		}
		return CachedSpan{File: i, Start: sp.Start, End: sp.End}
	}

	out := make([]CachedDiagnostic, len(items))
	for i, d := range items {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Primary:  encodeSpan(d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Span: encodeSpan(n.Span), Msg: n.Msg})
		}
		out[i] = cd
	}
	return out
}

// decodeDiagnostics is the inverse of encodeDiagnostics for the current run's FileIDs.
func decodeDiagnostics(cached []CachedDiagnostic, files []source.FileID, bag *diag.Bag) {
	decodeSpan := func(cs CachedSpan) source.Span {
		if cs.File < 0 || cs.File >= len(files) {
			return source.NoSpan
		}
		return source.Span{File: files[cs.File], Start: cs.Start, End: cs.End}
	}
	for _, cd := range cached {
		d := diag.New(diag.Severity(cd.Severity), diag.Code(cd.Code), decodeSpan(cd.Primary), cd.Message)
		for _, n := range cd.Notes {
			d = d.WithNote(decodeSpan(n.Span), n.Msg)
		}
		bag.Add(d)
	}
}
