package thread

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docshare-app/docshare/internal/model"
)

func comment(id, parent string, ctime int64) model.Comment {
	c := model.Comment{ID: id, DocumentID: "doc-1", Content: "c-" + id, Ctime: ctime}
	if parent != "" {
		c.ParentID = sql.NullString{String: parent, Valid: true}
	}
	return c
}

func TestAssembleNesting(t *testing.T) {
	// a
	// ├── b
	// │   └── d
	// └── c
	// e
	input := []model.Comment{
		comment("a", "", 1),
		comment("b", "a", 2),
		comment("c", "a", 3),
		comment("d", "b", 4),
		comment("e", "", 5),
	}

	roots := Assemble(input)
	require.Len(t, roots, 2)
	require.Equal(t, "a", roots[0].ID)
	require.Equal(t, "e", roots[1].ID)
	require.Len(t, roots[0].Replies, 2)
	require.Equal(t, "b", roots[0].Replies[0].ID)
	require.Equal(t, "c", roots[0].Replies[1].ID)
	require.Len(t, roots[0].Replies[0].Replies, 1)
	require.Equal(t, "d", roots[0].Replies[0].Replies[0].ID)
}

func TestAssemblePreservesSiblingOrder(t *testing.T) {
	input := []model.Comment{
		comment("r1", "", 1),
		comment("r2", "", 2),
		comment("r3", "", 3),
		comment("x", "r2", 4),
		comment("y", "r2", 5),
	}

	roots := Assemble(input)
	require.Len(t, roots, 3)
	for i, want := range []string{"r1", "r2", "r3"} {
		require.Equal(t, want, roots[i].ID)
	}
	require.Equal(t, "x", roots[1].Replies[0].ID)
	require.Equal(t, "y", roots[1].Replies[1].ID)
}

func TestAssembleOrphanPromotion(t *testing.T) {
	// a was deleted, so b arrives with a parent nobody knows. b becomes a
	// root and keeps its own subtree intact.
	input := []model.Comment{
		comment("b", "a", 2),
		comment("c", "b", 3),
	}

	roots := Assemble(input)
	require.Len(t, roots, 1)
	require.Equal(t, "b", roots[0].ID)
	require.Len(t, roots[0].Replies, 1)
	require.Equal(t, "c", roots[0].Replies[0].ID)
}

func TestAssembleEmpty(t *testing.T) {
	require.Empty(t, Assemble(nil))
	require.Empty(t, Assemble([]model.Comment{}))
}

func TestFlattenVisitsEveryNodeOnce(t *testing.T) {
	input := []model.Comment{
		comment("a", "", 1),
		comment("b", "a", 2),
		comment("c", "b", 3),
		comment("d", "", 4),
		comment("e", "d", 5),
	}

	flat := Flatten(Assemble(input))
	require.Len(t, flat, len(input))
	seen := make(map[string]bool, len(flat))
	for _, node := range flat {
		require.False(t, seen[node.ID])
		seen[node.ID] = true
	}
	// pre-order: parents come before their children
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, idsOf(flat))
}

func idsOf(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
