//go:build mage

// Package main contains Mage build targets for paper-catalog developer tooling.
package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir     = "bin"
	binName    = "paper-catalog"
	cmdPkg     = "./cmd/paper-catalog"
	catalogDir = "catalog"
	configFile = "paper-catalog.yaml"
)

// starterConfig is written by Init when no config file exists.
const starterConfig = `store:
  backend: sqlite
  sqlite_path: catalog/papers.db
  table: arxiv-papers
  timeout: 30s
  max_retries: 5
ingest:
  workers: 4
  keywords: 10
serve:
  addr: ":8080"
log:
  level: info
  format: console
`

// Init creates the catalog directory and a starter config file.
func Init() error {
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", catalogDir, err)
	}
	fmt.Println("  ", catalogDir)
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("   %s exists, left unchanged\n", configFile)
		return nil
	}
	if err := os.WriteFile(configFile, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}
	fmt.Println("  ", configFile)
	fmt.Println("Project initialized.")
	return nil
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Ingest builds the CLI and loads the papers file named by PAPERS
// (default papers.json) into the configured store.
func Ingest() error {
	mg.Deps(Build)
	path := os.Getenv("PAPERS")
	if path == "" {
		path = "papers.json"
	}
	return sh.RunV(filepath.Join(binDir, binName), "ingest", path)
}

// Serve builds the CLI and starts the HTTP query service.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports whether a directory is excluded from Stats.
func skipDir(name string) bool {
	return name == "_examples" || name == binDir || name == catalogDir || strings.HasPrefix(name, ".")
}

// countGoLines counts non-blank lines in Go files. With testOnly it counts
// only _test.go files; otherwise it counts the rest.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if strings.TrimSpace(sc.Text()) != "" {
				total++
			}
		}
		return sc.Err()
	})
	return total, err
}

// countDocWords counts words in Markdown and YAML files.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".md", ".yaml", ".yml":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(strings.Fields(string(data)))
		return nil
	})
	return total, err
}
