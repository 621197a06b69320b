package h2engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamTableInsertFindRemove(t *testing.T) {
	var tbl streamTable
	s1 := &Stream{id: 1}
	s9 := &Stream{id: 9} // same bucket as 1 (mod 8)

	tbl.insert(s1)
	tbl.insert(s9)
	require.Equal(t, 2, tbl.len())

	require.Same(t, s1, tbl.find(1))
	require.Same(t, s9, tbl.find(9))
	require.Nil(t, tbl.find(2))

	require.Same(t, s1, tbl.remove(1))
	require.Equal(t, 1, tbl.len())
	require.Nil(t, tbl.find(1))
	require.Same(t, s9, tbl.find(9))

	require.Nil(t, tbl.remove(1))
}

func TestResetHistoryTolerates(t *testing.T) {
	var r resetHistory
	r.record(5, true) // reset while expecting HEADERS

	require.True(t, r.tolerates(5, FrameWindowUpdate))
	require.False(t, r.tolerates(5, FrameData))
	require.False(t, r.tolerates(6, FrameWindowUpdate))
}

func TestResetHistoryMidData(t *testing.T) {
	var r resetHistory
	r.record(5, false) // reset mid-DATA

	require.True(t, r.tolerates(5, FrameData))
	require.False(t, r.tolerates(5, FrameHeaders))
}

func TestResetHistoryWraps(t *testing.T) {
	var r resetHistory
	for i := uint32(1); i <= resetHistorySize+1; i++ {
		r.record(i, false)
	}
	// the oldest entry (id 1) should have been overwritten
	require.False(t, r.tolerates(1, FrameWindowUpdate))
	require.True(t, r.tolerates(resetHistorySize+1, FrameWindowUpdate))
}
