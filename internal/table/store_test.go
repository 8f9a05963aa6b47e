package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MaterializedSnapshotIsFrozen(t *testing.T) {
	tbl := New("src", Column{Name: "v", Type: Int})
	_, err := tbl.Append(int64(1))
	require.NoError(t, err)

	st := NewStore()
	snap := st.Materialize("before_prune", tbl)
	require.NotEmpty(t, snap.ID)
	assert.True(t, snap.Materialized())

	// Mutate the source after the snapshot was taken.
	_, err = tbl.Append(int64(2))
	require.NoError(t, err)
	require.NoError(t, tbl.Set(0, "v", int64(42)))

	got, err := snap.Table()
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	v, err := got.Value(0, "v")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestStore_TransientSnapshotRecomputes(t *testing.T) {
	tbl := New("src", Column{Name: "v", Type: Int})
	_, err := tbl.Append(int64(1))
	require.NoError(t, err)

	st := NewStore()
	calls := 0
	snap := st.Transient("live_view", func() (*Table, error) {
		calls++
		return tbl.Clone(), nil
	})
	assert.False(t, snap.Materialized())

	got, err := snap.Table()
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())

	_, err = tbl.Append(int64(2))
	require.NoError(t, err)

	got, err = snap.Table()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len(), "transient view must reflect source changes")
	assert.Equal(t, 2, calls)
}

func TestStore_GetDropList(t *testing.T) {
	st := NewStore()
	tbl := New("src", Column{Name: "v", Type: Int})

	_, err := st.Get("missing")
	require.Error(t, err)

	st.Materialize("b", tbl)
	st.Materialize("a", tbl)

	names := []string{}
	for _, s := range st.List() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"a", "b"}, names)

	assert.True(t, st.Drop("a"))
	assert.False(t, st.Drop("a"))

	s, err := st.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "b", s.Name)
}

func TestStore_ReplaceKeepsLatest(t *testing.T) {
	st := NewStore()
	t1 := New("src", Column{Name: "v", Type: Int})
	_, err := t1.Append(int64(1))
	require.NoError(t, err)

	first := st.Materialize("result", t1)
	_, err = t1.Append(int64(2))
	require.NoError(t, err)
	second := st.Materialize("result", t1)

	assert.NotEqual(t, first.ID, second.ID)
	s, err := st.Get("result")
	require.NoError(t, err)
	got, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}
