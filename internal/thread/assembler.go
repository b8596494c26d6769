// Package thread rebuilds the nested reply forest of a document from the
// flat, append-only comment rows.
package thread

import "github.com/docshare-app/docshare/internal/model"

// Node is one comment with its replies nested beneath it. DisplayName is
// filled by the caller once author identities are resolved.
type Node struct {
	ID          string         `json:"id"`
	ParentID    string         `json:"parent_id,omitempty"`
	Content     string         `json:"content"`
	DisplayName string         `json:"user_name"`
	Ctime       int64          `json:"ctime"`
	Comment     *model.Comment `json:"-"`
	Replies     []*Node        `json:"replies"`
}

// Assemble turns a flat comment list into a forest. Input order is
// preserved at every level, so a chronologically sorted input yields
// chronologically sorted siblings. A comment whose parent is absent from
// the input is promoted to a root rather than dropped: deleting an
// ancestor must never hide its descendants.
func Assemble(comments []model.Comment) []*Node {
	index := make(map[string]*Node, len(comments))
	nodes := make([]*Node, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		node := &Node{
			ID:       c.ID,
			ParentID: c.Parent(),
			Content:  c.Content,
			Ctime:    c.Ctime,
			Comment:  c,
			Replies:  make([]*Node, 0),
		}
		index[c.ID] = node
		nodes = append(nodes, node)
	}
	roots := make([]*Node, 0, len(nodes))
	for _, node := range nodes {
		if node.ParentID != "" {
			if parent, ok := index[node.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Flatten walks the forest in pre-order. It is the inverse shape check of
// Assemble: the result is a permutation of the assembled input.
func Flatten(roots []*Node) []*Node {
	out := make([]*Node, 0)
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, node := range nodes {
			out = append(out, node)
			walk(node.Replies)
		}
	}
	walk(roots)
	return out
}
