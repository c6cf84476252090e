package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l3aro/go-cfg-complexity/pkg/cfg"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		fullPath := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func paths(results []FileInfo) []string {
	out := make([]string, len(results))
	for i, f := range results {
		out[i] = f.Path
	}
	return out
}

func TestScannerScan(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":                  "package main",
		"utils/helper.go":          "package utils",
		"README.md":                "# Test",
		"src/app.py":               "print('hello')",
		"build/app.ll":             "define void @f() {\n  ret void\n}\n",
		"cfg/diamond.json":         "{}",
		".hidden/file.go":          "package hidden",
		"node_modules/pkg/main.py": "pass",
		"vendor/dep/dep.go":        "package dep",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	// Sorted by path; documents, hidden and excluded dirs are left out
	expected := []struct {
		path string
		lang cfg.Language
	}{
		{"build/app.ll", cfg.LanguageLLVM},
		{"main.go", cfg.LanguageGo},
		{"src/app.py", cfg.LanguagePython},
		{"utils/helper.go", cfg.LanguageGo},
	}

	if len(results) != len(expected) {
		t.Fatalf("Scan found %v, want %d files", paths(results), len(expected))
	}
	for i, want := range expected {
		if results[i].Path != want.path {
			t.Errorf("results[%d].Path = %s, want %s", i, results[i].Path, want.path)
		}
		if results[i].Language != want.lang {
			t.Errorf("%s: Language = %s, want %s", want.path, results[i].Language, want.lang)
		}
		if !filepath.IsAbs(results[i].FullPath) {
			t.Errorf("%s: FullPath %s is not absolute", want.path, results[i].FullPath)
		}
	}
	if results[1].Size != int64(len("package main")) {
		t.Errorf("main.go Size = %d, want %d", results[1].Size, len("package main"))
	}
}

func TestScannerWithCcmignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		".ccmignore": `# Ignore generated code
*_gen.go
# Ignore build directory
build/
# Ignore specific file
scratch.py
!keep_gen.go
`,
		"app.go":            "package app",
		"app_gen.go":        "package app",
		"keep_gen.go":       "package app",
		"main.py":           "pass",
		"scratch.py":        "pass",
		"build/out.ll":      "",
		"pkg/deep/x_gen.go": "package deep",
		"pkg/deep/x.go":     "package deep",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	found := make(map[string]bool)
	for _, f := range results {
		found[f.Path] = true
	}

	for _, expected := range []string{"app.go", "keep_gen.go", "main.py", "pkg/deep/x.go"} {
		if !found[expected] {
			t.Errorf("Expected to find %s", expected)
		}
	}
	for _, ignored := range []string{"app_gen.go", "scratch.py", "build/out.ll", "pkg/deep/x_gen.go"} {
		if found[ignored] {
			t.Errorf("Expected %s to be ignored", ignored)
		}
	}
}

func TestScannerNestedCcmignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a/.ccmignore": "local.go\n",
		"a/local.go":   "package a",
		"a/other.go":   "package a",
		"b/local.go":   "package b",
	})

	results, err := New(DefaultOptions()).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := paths(results)
	want := []string{"a/other.go", "b/local.go"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Scan = %v, want %v", got, want)
	}
}

func TestScannerExclude(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":              "package main",
		"main_test.go":         "package main",
		"gen/api/api.go":       "package api",
		"internal/x/x.go":      "package x",
		"internal/x/x_test.go": "package x",
	})

	opts := DefaultOptions()
	opts.Exclude = []string{"gen/**", "*_test.go"}
	results, err := New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	got := paths(results)
	want := []string{"internal/x/x.go", "main.go"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Scan = %v, want %v", got, want)
	}
}

func TestScannerInvalidExclude(t *testing.T) {
	opts := DefaultOptions()
	opts.Exclude = []string{"[unterminated"}
	if _, err := New(opts).Scan(t.TempDir()); err == nil {
		t.Error("Expected an error for an invalid exclude pattern")
	}
}

func TestScannerMissingRoot(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected an error for a missing root")
	}
}

func TestScannerSkipHidden(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"visible.go":      "package v",
		".hidden/file.go": "package h",
		".generated.py":   "pass",
	})

	opts := DefaultOptions()
	results, _ := New(opts).Scan(tmpDir)
	for _, f := range results {
		if f.Path == ".hidden/file.go" || f.Path == ".generated.py" {
			t.Errorf("Should skip hidden file %s when SkipHidden=true", f.Path)
		}
	}

	opts.SkipHidden = false
	results, _ = New(opts).Scan(tmpDir)
	found := make(map[string]bool)
	for _, f := range results {
		found[f.Path] = true
	}
	if !found[".hidden/file.go"] || !found[".generated.py"] {
		t.Errorf("Should find hidden files when SkipHidden=false, got %v", paths(results))
	}
}

func TestScannerLanguages(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"a.go":       "package a",
		"b.py":       "pass",
		"cfg/f.yaml": "blocks: []",
	})

	opts := DefaultOptions()
	opts.Languages = []cfg.Language{cfg.LanguageDocument}
	results, err := New(opts).Scan(tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if got := paths(results); len(got) != 1 || got[0] != "cfg/f.yaml" {
		t.Errorf("Scan = %v, want [cfg/f.yaml]", got)
	}

	opts.Languages = nil
	results, _ = New(opts).Scan(tmpDir)
	if len(results) != 3 {
		t.Errorf("Scan with no language filter found %v, want 3 files", paths(results))
	}
}

func TestExcludeMatcher(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		match   bool
	}{
		{"*_test.go", "main_test.go", true},
		{"*_test.go", "deep/dir/x_test.go", true},
		{"*_test.go", "main.go", false},
		{"gen/**", "gen/api/api.go", true},
		{"gen/**", "src/gen/api.go", false},
		{"**/gen/**", "src/gen/api.go", true},
		{"src/*.py", "src/app.py", true},
		{"src/*.py", "src/deep/app.py", false},
		{"**/*.ll", "a/b/c.ll", true},
	}

	for _, tt := range tests {
		m, err := newExcludeMatcher([]string{tt.pattern})
		if err != nil {
			t.Fatalf("newExcludeMatcher(%q) failed: %v", tt.pattern, err)
		}
		if got := m.match(tt.path); got != tt.match {
			t.Errorf("match(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.match)
		}
	}
}
