// Package contextrender pins the ContextRenderer collaborator: turning a
// scope (an optional prompt plus a project tree) into the text blob
// injected into an assistant's context window. Rendering quality and
// ranking are out of scope; this produces a minimal, legible rendering
// sufficient to exercise get_context end-to-end.
package contextrender

import (
	"strings"

	"github.com/ctxmemd/ctxd/internal/storage"
)

// Scope is the input to a render besides the tree: an optional free-text
// prompt.
type Scope struct {
	Prompt string
}

// ContextRenderer formats a tree (optionally narrowed by scope) into an
// injectable string, and lists the node paths it drew from.
type ContextRenderer interface {
	Render(scope Scope, tree storage.Tree) (text string, nodes []string, err error)
}

// Default renders a path-ordered listing of the tree, indented by depth.
// A non-empty prompt is written as a heading; the tree is not filtered by it.
type Default struct{}

// New returns the default ContextRenderer.
func New() *Default { return &Default{} }

func (Default) Render(scope Scope, tree storage.Tree) (string, []string, error) {
	var b strings.Builder
	var nodes []string

	if scope.Prompt != "" {
		b.WriteString("# Context for: ")
		b.WriteString(scope.Prompt)
		b.WriteString("\n\n")
	}

	var walk func(n storage.TreeNode, depth int)
	walk = func(n storage.TreeNode, depth int) {
		if n.Path != "" {
			nodes = append(nodes, n.Path)
			b.WriteString(strings.Repeat("  ", depth))
			if n.IsDir {
				b.WriteString(n.Path + "/\n")
			} else {
				b.WriteString(n.Path + "\n")
			}
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(tree.Root, 0)

	return b.String(), nodes, nil
}
