package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var builtinSeeds = []string{
	"package p\n",
	"package p\n\n//hasheq:generate\ntype T struct{}\n",
	"package p\n\ntype T struct {\n\tA int32 //hasheq:include\n\tB string\n}\n",
	"package p\n\ntype T struct {\n\tA int //hasheq:include\n\tB int //hasheq:ignore\n}\n",
	"package p\n\nimport \"time\"\n\n//hasheq:generate\ntype T struct {\n\tD time.Duration\n\tF []float64\n\tP *T `hasheq:\"nullable\"`\n\tM [4]byte\n}\n",
	"package p\n\ntype C float32\ntype L []L\n\n//hasheq:generate\ntype T struct {\n\tC\n\t*L\n\tX, Y C\n\t_ int\n}\n",
	"package p\n\n//hasheq:generate\ntype G[T any] struct{ V T }\n",
	"package p\n\n//hasheq:generate\ntype T struct{ X int }\n\nfunc (t *T) Equal(other any) bool { return false }\n",
	"package p\n\ntype T struct {\n\t//hasheq:frozen\n\tA int `hasheq:\"nullable,nullable\"`\n}\n",
	"package p\n\ntype T struct {\n\tA int //hasheq:include\n", // unterminated
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds the Go fixtures of the extractor and renderer tests.
func addTestdataSeeds(f *testing.F) {
	for _, root := range []string{filepath.Join("..", "extract", "testdata"), filepath.Join("..", "render", "testdata")} {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			// #nosec G304 -- fixtures inside the repository
			data, err := os.ReadFile(path)
			if err == nil {
				f.Add(clampSeed(data))
			}
			return nil
		})
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
