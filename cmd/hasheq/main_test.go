package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hasheq/internal/project"
	"hasheq/internal/render"
)

const pointSrc = `package shapes

//hasheq:generate
type Point struct {
	X, Y  int32
	Label string //hasheq:ignore
}
`

const conflictSrc = `package shapes

type Bad struct {
	A int //hasheq:include
	B int //hasheq:ignore
}
`

func writePackage(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	// keep the user's cache out of tests
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	var out, errb bytes.Buffer
	code = execute(append([]string{"--color", "off"}, args...), &out, &errb)
	return code, out.String(), errb.String()
}

func TestGenWritesAndVerifies(t *testing.T) {
	dir := writePackage(t, map[string]string{"point.go": pointSrc})

	code, _, stderr := run(t, "gen", "--verify", dir)
	if code != 1 {
		t.Fatalf("verify before gen: code %d, stderr %s", code, stderr)
	}

	code, stdout, stderr := run(t, "gen", dir)
	if code != 0 {
		t.Fatalf("gen: code %d, stderr %s", code, stderr)
	}
	outPath := filepath.Join(dir, project.DefaultOutputFile)
	if !strings.Contains(stdout, "wrote "+outPath+" (1 types)") {
		t.Errorf("stdout = %q", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), render.Header) {
		t.Errorf("generated file lacks header:\n%s", data)
	}

	code, stdout, _ = run(t, "gen", dir)
	if code != 0 || !strings.Contains(stdout, "is up to date") {
		t.Errorf("second gen: code %d, stdout %q", code, stdout)
	}
	if code, _, stderr = run(t, "gen", "--verify", dir); code != 0 {
		t.Errorf("verify after gen: code %d, stderr %s", code, stderr)
	}
	if code, stdout, _ = run(t, "--quiet", "gen", dir); code != 0 || stdout != "" {
		t.Errorf("quiet gen: code %d, stdout %q", code, stdout)
	}
}

func TestCheckReportsConflict(t *testing.T) {
	dir := writePackage(t, map[string]string{"bad.go": conflictSrc})

	code, stdout, _ := run(t, "check", "--format", "short", "--with-notes", dir)
	if code != 1 {
		t.Fatalf("code = %d", code)
	}
	want := strings.Join([]string{
		"error POL3001 bad.go:3:6 Bad: @include and @ignore cannot be used on the same type",
		"note POL3001 bad.go:4:2 A is marked @include",
		"note POL3001 bad.go:5:2 B is marked @ignore",
	}, "\n") + "\n"
	if stdout != want {
		t.Errorf("stdout:\n%s\nwant:\n%s", stdout, want)
	}
	if _, err := os.Stat(filepath.Join(dir, project.DefaultOutputFile)); !os.IsNotExist(err) {
		t.Error("check must not write output")
	}
}

func TestCheckPrettyAndJSON(t *testing.T) {
	dir := writePackage(t, map[string]string{"bad.go": conflictSrc})

	_, stdout, _ := run(t, "check", dir)
	if !strings.Contains(stdout, "bad.go:3:6: ERROR POL3001: Bad:") || !strings.Contains(stdout, " 3 | type Bad struct {") {
		t.Errorf("pretty output:\n%s", stdout)
	}

	_, stdout, _ = run(t, "check", "--format", "json", dir)
	var payload struct {
		Count       int `json:"count"`
		Diagnostics []struct {
			Code string `json:"code"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout)
	}
	if payload.Count != 1 || payload.Diagnostics[0].Code != "POL3001" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestPlanJSON(t *testing.T) {
	dir := writePackage(t, map[string]string{"point.go": pointSrc})

	code, stdout, stderr := run(t, "plan", "--format", "json", dir)
	if code != 0 {
		t.Fatalf("code %d, stderr %s", code, stderr)
	}
	var out planOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, stdout)
	}
	if out.Package != "shapes" || len(out.Types) != 1 {
		t.Fatalf("out = %+v", out)
	}
	tp := out.Types[0]
	if tp.Type != "Point" || tp.Outcome != "exclude-marked" {
		t.Errorf("type plan = %+v", tp)
	}
	if tp.Hash.Seed != 1 || tp.Hash.Multiplier != 1000003 || len(tp.Hash.Steps) != 2 {
		t.Errorf("hash plan = %+v", tp.Hash)
	}
	if len(tp.Equals) != 2 || tp.Equals[0].Property != "X" || tp.Equals[1].Strategy != "direct" {
		t.Errorf("equals = %+v", tp.Equals)
	}
}

func TestPlanPretty(t *testing.T) {
	dir := writePackage(t, map[string]string{"point.go": pointSrc})

	_, stdout, _ := run(t, "plan", dir)
	for _, want := range []string{"shapes.Point  exclude-marked", "equals", "seed 1, multiplier 1000003", "widen"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("missing %q in:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "\x1b[") {
		t.Error("--color off must not emit escapes")
	}
}

func TestConfigFlag(t *testing.T) {
	src := `package shapes

type Tagged struct {
	A int //hasheq:key
	B int
}
`
	dir := writePackage(t, map[string]string{"tagged.go": src})
	cfgPath := filepath.Join(t.TempDir(), project.ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte("[markers]\ninclude = [\"key\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := run(t, "--config", cfgPath, "plan", "--format", "json", dir)
	if code != 0 {
		t.Fatalf("code %d, stderr %s", code, stderr)
	}
	var out planOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Types) != 1 || out.Types[0].Outcome != "include-only-marked" {
		t.Errorf("out = %+v", out)
	}

	code, _, stderr = run(t, "--config", filepath.Join(dir, "missing.toml"), "check", dir)
	if code != 1 || !strings.Contains(stderr, "hasheq:") {
		t.Errorf("missing config: code %d, stderr %q", code, stderr)
	}
}

func TestTraceToStderr(t *testing.T) {
	dir := writePackage(t, map[string]string{"point.go": pointSrc})
	code, _, stderr := run(t, "--trace", "-", "--trace-level", "phase", "check", "--no-cache", dir)
	if code != 0 {
		t.Fatalf("code %d", code)
	}
	for _, want := range []string{"generate_package", "extract", "synth"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("trace lacks %q:\n%s", want, stderr)
		}
	}
}

func TestTimings(t *testing.T) {
	dir := writePackage(t, map[string]string{"point.go": pointSrc})
	_, _, stderr := run(t, "--timings", "check", "--no-cache", dir)
	for _, want := range []string{"timings:", "load", "extract", "total"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("timings lack %q:\n%s", want, stderr)
		}
	}
}

func TestVersionJSON(t *testing.T) {
	code, stdout, _ := run(t, "version", "--format", "json", "--hash")
	if code != 0 {
		t.Fatalf("code %d", code)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Tool != "hasheq" || payload.Version == "" || payload.GitCommit == "" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestUnknownColorValue(t *testing.T) {
	var out, errb bytes.Buffer
	if code := execute([]string{"--color", "sometimes", "version"}, &out, &errb); code != 1 {
		t.Fatalf("code = %d", code)
	}
	if !strings.Contains(errb.String(), "unknown color value") {
		t.Errorf("stderr = %q", errb.String())
	}
}

func TestGenMultiplePackages(t *testing.T) {
	root := t.TempDir()
	for rel, src := range map[string]string{
		"a/point.go":         pointSrc,
		"a/b/point.go":       strings.Replace(pointSrc, "package shapes", "package b", 1),
		"plain/plain.go":     "package plain\n\ntype Plain struct{ V int }\n",
		"testdata/x/bad.go":  conflictSrc,
		"_scratch/bad.go":    conflictSrc,
		"notes/README.md":    "not a package\n",
		"notes/nested/n.txt": "still not a package\n",
	} {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	code, stdout, stderr := run(t, "--quiet", "gen", "--ui", "off", root+"/...")
	if code != 0 {
		t.Fatalf("code %d, stderr %s", code, stderr)
	}
	if stdout != "" {
		t.Errorf("quiet stdout = %q", stdout)
	}
	for _, rel := range []string{"a", "a/b"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel), project.DefaultOutputFile)); err != nil {
			t.Errorf("%s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "plain", project.DefaultOutputFile)); !os.IsNotExist(err) {
		t.Error("package without candidates got an output file")
	}

	// one conflicting package blocks every write
	bad := filepath.Join(root, "c")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "bad.go"), []byte(conflictSrc), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "a", project.DefaultOutputFile)); err != nil {
		t.Fatal(err)
	}
	code, stdout, _ = run(t, "gen", "--ui", "off", "--format", "short", root+"/...")
	if code != 1 || !strings.Contains(stdout, "POL3001") {
		t.Fatalf("code %d, stdout %q", code, stdout)
	}
	if _, err := os.Stat(filepath.Join(root, "a", project.DefaultOutputFile)); !os.IsNotExist(err) {
		t.Error("gen wrote output although another package failed")
	}
}

func TestGenRejectsBadUIValue(t *testing.T) {
	dir := writePackage(t, map[string]string{"point.go": pointSrc})
	code, _, stderr := run(t, "gen", "--ui", "maybe", dir)
	if code != 1 || !strings.Contains(stderr, "invalid --ui value") {
		t.Errorf("code %d, stderr %q", code, stderr)
	}
}

func TestTimingsLabelPackages(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a", "b"} {
		dir := filepath.Join(root, rel)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "point.go"), []byte(pointSrc), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	_, _, stderr := run(t, "--timings", "check", "--ui", "off", "--no-cache",
		filepath.Join(root, "a"), filepath.Join(root, "b"))
	if strings.Count(stderr, "timings (") != 2 {
		t.Errorf("expected a labelled report per package:\n%s", stderr)
	}
}
