package driver

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hasheq/internal/diag"
	"hasheq/internal/render"
	"hasheq/internal/source"
)

// WriteOutput brings res.OutputPath in line with res. With generated types the file is
// replaced atomically when its content differs; without them a previously generated
// file is removed. Files lacking the generated header are never touched.
func WriteOutput(res *Result) (changed bool, err error) {
	if res.Bag != nil && res.Bag.HasErrors() {
		return false, errors.New("refusing to write output of a run with errors")
	}
	existing, err := readExisting(res.OutputPath)
	if err != nil {
		return false, err
	}
	if existing != nil && !isGenerated(existing) {
		return false, fmt.Errorf("%s exists and was not generated by hasheq", res.OutputPath)
	}

	if len(res.Types) == 0 {
		if existing == nil {
			return false, nil
		}
		if err := os.Remove(res.OutputPath); err != nil {
			return false, err
		}
		return true, nil
	}
	if bytes.Equal(existing, res.Output) {
		return false, nil
	}

	dir := filepath.Dir(res.OutputPath)
	f, err := os.CreateTemp(dir, ".hasheq-*")
	if err != nil {
		return false, err
	}
	tmp := f.Name()
	defer func() {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}()
	if _, err := f.Write(res.Output); err != nil {
		_ = f.Close()
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmp, res.OutputPath); err != nil {
		return false, err
	}
	return true, nil
}

// Verify compares the file on disk with what res would write and reports GEN4002
// into res.Bag when they differ.
func Verify(res *Result) (stale bool, err error) {
	existing, err := readExisting(res.OutputPath)
	if err != nil {
		return false, err
	}
	name := filepath.Base(res.OutputPath)
	switch {
	case len(res.Types) == 0 && existing != nil && isGenerated(existing):
		stale = true
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.GenStaleOutput, source.NoSpan,
			fmt.Sprintf("%s is no longer needed; run hasheq gen", name)).Emit()
	case len(res.Types) > 0 && existing == nil:
		stale = true
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.GenStaleOutput, source.NoSpan,
			fmt.Sprintf("%s is missing; run hasheq gen", name)).Emit()
	case len(res.Types) > 0 && !bytes.Equal(existing, res.Output):
		stale = true
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.GenStaleOutput, source.NoSpan,
			fmt.Sprintf("%s is out of date; run hasheq gen", name)).Emit()
	}
	return stale, nil
}

func readExisting(path string) ([]byte, error) {
	// #nosec G304 -- path is the configured output file
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func isGenerated(src []byte) bool {
	return bytes.HasPrefix(src, []byte(render.Header))
}
