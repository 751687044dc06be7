package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet keeps every Go file the extractor looked at, so diagnostics can be resolved
// to line/column and rendered with context long after parsing is done.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase creates a FileSet whose relative paths are computed against baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0, 8),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// SetBaseDir sets the directory relative paths are computed against.
func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Len returns the number of stored files.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Add stores content under path and returns a fresh FileID, even if the path was seen before.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	normalized := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Load reads a file from disk. Content is kept byte-for-byte so that offsets reported
// by go/token stay valid.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.Add(path, content, 0), nil
}

// AddVirtual adds an in-memory file (tests, stdin).
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id. It panics on an unknown id.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// GetLatest returns the latest FileID stored for path.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into 1-based line/column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fileSet.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Span builds a span from go/token byte offsets, clamping to the file size.
func (fileSet *FileSet) Span(id FileID, startOff, endOff int) Span {
	size := len(fileSet.files[id].Content)
	startOff = min(max(startOff, 0), size)
	endOff = min(max(endOff, startOff), size)
	start, err := safecast.Conv[uint32](startOff)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	end, err := safecast.Conv[uint32](endOff)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return Span{File: id, Start: start, End: end}
}

// GetLine returns the 1-based line lineNum without its newline, or "" if out of range.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lines := uint32(len(f.LineIdx))
	size := uint32(len(f.Content))

	var start, end uint32
	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lines:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}
	if lineNum-1 < lines {
		end = f.LineIdx[lineNum-1]
	} else {
		end = size
	}
	if start >= size {
		return ""
	}
	return string(f.Content[start:min(end, size)])
}

// FormatPath renders the path according to mode: "absolute", "relative", "basename" or "auto".
func (f *File) FormatPath(mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := filepath.Abs(f.Path); err == nil {
			return normalizePath(abs)
		}
	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		return relativePath(f.Path, baseDir)
	case "basename":
		return filepath.Base(f.Path)
	case "auto":
		// длинные абсолютные пути сокращаем до имени файла
		if len(f.Path) >= 40 && filepath.IsAbs(f.Path) {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}
