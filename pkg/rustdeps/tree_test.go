package rustdeps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/runfile/pkg/importmodel"
	"github.com/Sumatoshi-tech/runfile/pkg/rustdeps"
)

func TestReduce_PathContributesLeadingIdentOnly(t *testing.T) {
	t.Parallel()

	tree := &rustdeps.PathNode{
		Ident: "tokio",
		Next: &rustdeps.GroupNode{Items: []rustdeps.ImportTree{
			&rustdeps.PathNode{Ident: "io"},
			&rustdeps.PathNode{Ident: "net", Next: &rustdeps.PathNode{Ident: "TcpStream"}},
		}},
	}

	got := rustdeps.Reduce(tree, importmodel.NewSet())

	assert.Equal(t, []string{"tokio"}, got.Sorted())
}

func TestReduce_GroupMembersIndependent(t *testing.T) {
	t.Parallel()

	tree := &rustdeps.GroupNode{Items: []rustdeps.ImportTree{
		&rustdeps.PathNode{Ident: "rand"},
		&rustdeps.PathNode{Ident: "crate", Next: &rustdeps.PathNode{Ident: "util"}},
		&rustdeps.GroupNode{Items: []rustdeps.ImportTree{
			&rustdeps.PathNode{Ident: "serde"},
			&rustdeps.PathNode{Ident: "super"},
		}},
	}}

	got := rustdeps.Reduce(tree, importmodel.NewSet("anyhow"))

	assert.Equal(t, []string{"anyhow", "rand", "serde"}, got.Sorted())
}

func TestIsReserved(t *testing.T) {
	t.Parallel()

	for _, ident := range []string{"crate", "self", "super", "std"} {
		assert.True(t, rustdeps.IsReserved(ident), ident)
	}

	for _, ident := range []string{"rand", "tokio", "Self", "stdx"} {
		assert.False(t, rustdeps.IsReserved(ident), ident)
	}
}
