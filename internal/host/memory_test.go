package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SpawnAndComponents(t *testing.T) {
	m := NewMemory()

	id := m.Spawn(Name("panel"), Text("hello"))
	require.True(t, m.Exists(id))

	c, ok := m.Component(id, "text")
	require.True(t, ok)
	assert.Equal(t, Text("hello"), c)

	v1 := m.ComponentVersion(id, "text")
	assert.NotZero(t, v1)

	require.NoError(t, m.Insert(id, Text("world")))
	v2 := m.ComponentVersion(id, "text")
	assert.Greater(t, v2, v1, "insert must bump the component version")

	require.NoError(t, m.Remove(id, "text"))
	assert.Zero(t, m.ComponentVersion(id, "text"), "removed component has version 0")

	assert.Equal(t, Stats{Spawned: 1, Inserted: 1, Removed: 1}, m.Stats())
}

func TestMemory_RemoveAbsentIsNoop(t *testing.T) {
	m := NewMemory()
	id := m.Spawn()

	require.NoError(t, m.Remove(id, "text"))
	assert.Equal(t, 0, m.Stats().Removed)
}

func TestMemory_StaleEntity(t *testing.T) {
	m := NewMemory()
	id := m.Spawn(Text("x"))
	m.Despawn(id)

	assert.False(t, m.Exists(id))
	assert.ErrorIs(t, m.Insert(id, Text("y")), ErrNoEntity)
	assert.ErrorIs(t, m.Remove(id, "text"), ErrNoEntity)
	assert.Zero(t, m.ComponentVersion(id, "text"))

	// Despawning twice is harmless.
	m.Despawn(id)
	assert.Equal(t, 1, m.Stats().Despawned)
}

func TestMemory_ResourceVersions(t *testing.T) {
	m := NewMemory()
	assert.Zero(t, m.ResourceVersion("items"))

	m.SetResource("items", []string{"a"})
	v1 := m.ResourceVersion("items")
	assert.NotZero(t, v1)

	m.SetResource("items", []string{"a", "b"})
	assert.Greater(t, m.ResourceVersion("items"), v1)

	m.RemoveResource("items")
	assert.Zero(t, m.ResourceVersion("items"))
	_, ok := m.Resource("items")
	assert.False(t, ok)
}

func TestMemory_ReparentChildren(t *testing.T) {
	m := NewMemory()
	root := m.Spawn(Name("root"))
	a := m.Spawn(Text("a"))
	b := m.Spawn(Text("b"))
	c := m.Spawn(Text("c"))

	require.NoError(t, m.ReparentChildren(root, []EntityID{a, b, c}))
	assert.Equal(t, []EntityID{a, b, c}, m.Children(root))

	require.NoError(t, m.ReparentChildren(root, []EntityID{c, a}))
	assert.Equal(t, []EntityID{c, a}, m.Children(root))

	_, ok := m.Parent(b)
	assert.False(t, ok, "b was dropped from the child list")
	p, ok := m.Parent(c)
	require.True(t, ok)
	assert.Equal(t, root, p)
}

func TestMemory_ReparentMovesBetweenParents(t *testing.T) {
	m := NewMemory()
	left := m.Spawn()
	right := m.Spawn()
	child := m.Spawn()

	require.NoError(t, m.SetParent(child, left))
	require.NoError(t, m.ReparentChildren(right, []EntityID{child}))

	assert.Empty(t, m.Children(left))
	assert.Equal(t, []EntityID{child}, m.Children(right))
}

func TestMemory_DespawnDetachesFromParent(t *testing.T) {
	m := NewMemory()
	root := m.Spawn()
	a := m.Spawn()
	b := m.Spawn()
	require.NoError(t, m.ReparentChildren(root, []EntityID{a, b}))

	m.Despawn(a)
	assert.Equal(t, []EntityID{b}, m.Children(root))
}

func TestMemory_Observe(t *testing.T) {
	m := NewMemory()
	var ops []Op
	m.Observe(func(mu Mutation) { ops = append(ops, mu.Op) })

	id := m.Spawn()
	require.NoError(t, m.Insert(id, Name("n")))
	m.SetResource("k", 1)
	m.Despawn(id)

	assert.Equal(t, []Op{OpSpawn, OpInsert, OpResource, OpDespawn}, ops)
}

func TestStats_Sub(t *testing.T) {
	before := Stats{Spawned: 2, Inserted: 1}
	after := Stats{Spawned: 5, Inserted: 1, Despawned: 1, Resources: 3}

	d := after.Sub(before)
	assert.Equal(t, Stats{Spawned: 3, Despawned: 1, Resources: 3}, d)
	assert.Equal(t, 4, d.Structural())
}

func TestDump(t *testing.T) {
	m := NewMemory()
	list := m.Spawn(Name("ul"), Attr{Key: "class", Value: "list"}, Attr{Key: "aria", Value: "x"})
	item := m.Spawn(Name("li"))
	text := m.Spawn(Text("first"))
	bare := m.Spawn()
	require.NoError(t, m.ReparentChildren(list, []EntityID{item, bare}))
	require.NoError(t, m.SetParent(text, item))

	want := "ul aria=x class=list\n" +
		"  li\n" +
		"    \"first\"\n" +
		"  -\n"
	assert.Equal(t, want, Dump(m, m.Roots()...))
	assert.Equal(t, []EntityID{list}, m.Roots())
}
