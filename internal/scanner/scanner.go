// Package scanner pins the Scanner collaborator: walking a project's files
// to build the skeleton tree saved by Storage. Invoked only during
// init/enrichment, never from the hot request path. Framework/language
// detection fidelity is explicitly out of scope; this applies a minimal
// extension-based heuristic sufficient to populate the manifest.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctxmemd/ctxd/internal/storage"
)

// Options controls what a scan considers.
type Options struct {
	ExcludePatterns []string
}

// Scanner walks a project root and produces its skeleton tree.
type Scanner interface {
	Scan(root string, opts Options) (storage.Tree, int, []string, error)
}

// Default is a flat directory walker with no AST/symbol extraction.
type Default struct{}

// New returns the default Scanner.
func New() *Default { return &Default{} }

var extLanguages = map[string]string{
	".go":   "go",
	".rs":   "rust",
	".py":   "python",
	".ts":   "typescript",
	".tsx":  "typescript",
	".js":   "javascript",
	".jsx":  "javascript",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
}

type node struct {
	rel      string
	isDir    bool
	language string
	children []string // relative paths, in discovery order
}

func (Default) Scan(root string, opts Options) (storage.Tree, int, []string, error) {
	fileCount := 0
	langSet := map[string]bool{}

	nodes := map[string]*node{"": {rel: "", isDir: true}}
	var order []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		for _, pat := range opts.ExcludePatterns {
			if matched, _ := filepath.Match(pat, filepath.Base(rel)); matched {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		n := &node{rel: rel, isDir: info.IsDir()}
		if !info.IsDir() {
			fileCount++
			if lang, ok := extLanguages[strings.ToLower(filepath.Ext(rel))]; ok {
				n.language = lang
				langSet[lang] = true
			}
		}
		nodes[rel] = n
		order = append(order, rel)

		parent := filepath.Dir(rel)
		if parent == "." {
			parent = ""
		}
		if p, ok := nodes[parent]; ok {
			p.children = append(p.children, rel)
		}
		return nil
	})
	if err != nil {
		return storage.Tree{}, 0, nil, err
	}

	var build func(rel string) storage.TreeNode
	build = func(rel string) storage.TreeNode {
		n := nodes[rel]
		out := storage.TreeNode{Path: n.rel, IsDir: n.isDir, Language: n.language}
		for _, c := range n.children {
			out.Children = append(out.Children, build(c))
		}
		return out
	}

	languages := make([]string, 0, len(langSet))
	for l := range langSet {
		languages = append(languages, l)
	}
	sort.Strings(languages)
	_ = order

	return storage.Tree{Root: build("")}, fileCount, languages, nil
}
