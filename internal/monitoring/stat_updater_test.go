package monitoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatUpdater_Snapshot(t *testing.T) {
	store := &stubVideoStore{count: 3, bytes: 4096}
	su := NewStatUpdater(store, &stubEventRecorder{}, t.TempDir())

	su.update()

	snap := su.Snapshot()
	require.Equal(t, int64(3), snap.VideoCount)
	require.Equal(t, int64(4096), snap.LibraryBytes)
	require.NotZero(t, snap.DiskTotalBytes)
	require.False(t, snap.UpdatedAt.IsZero())
}
