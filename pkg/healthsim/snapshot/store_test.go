package snapshot_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/healthsim/pkg/healthsim/snapshot"
)

type storeFactory func(t *testing.T) snapshot.Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) snapshot.Store {
			return snapshot.NewMemoryStore()
		},
		"sqlite": func(t *testing.T) snapshot.Store {
			s, err := snapshot.NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
		"sqlite-file": func(t *testing.T) snapshot.Store {
			s, err := snapshot.NewSQLiteStore(filepath.Join(t.TempDir(), "snap.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Run("save and load", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				data := []byte(`{"id":"tl-1"}`)
				require.NoError(t, s.Save(ctx, "core-1", "patientsim", data))

				got, err := s.Load(ctx, "core-1", "patientsim")
				require.NoError(t, err)
				assert.Equal(t, data, got)
			})

			t.Run("missing snapshot", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				_, err := s.Load(ctx, "core-1", "patientsim")
				assert.ErrorIs(t, err, snapshot.ErrNotFound)
			})

			t.Run("overwrite bumps version", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				require.NoError(t, s.Save(ctx, "core-1", "membersim", []byte("v1")))
				require.NoError(t, s.Save(ctx, "core-1", "membersim", []byte("v2")))

				got, err := s.Load(ctx, "core-1", "membersim")
				require.NoError(t, err)
				assert.Equal(t, []byte("v2"), got)

				infos, err := s.List(ctx, "core-1")
				require.NoError(t, err)
				require.Len(t, infos, 1)
				assert.Equal(t, 2, infos[0].Version)
				assert.Equal(t, int64(2), infos[0].Size)
				assert.False(t, infos[0].SavedAt.IsZero())
			})

			t.Run("list is ordered by product", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				for _, p := range []string{"rxmembersim", "membersim", "patientsim"} {
					require.NoError(t, s.Save(ctx, "core-1", p, []byte(p)))
				}
				require.NoError(t, s.Save(ctx, "core-2", "patientsim", []byte("x")))

				infos, err := s.List(ctx, "core-1")
				require.NoError(t, err)
				require.Len(t, infos, 3)
				assert.Equal(t, "membersim", infos[0].Product)
				assert.Equal(t, "patientsim", infos[1].Product)
				assert.Equal(t, "rxmembersim", infos[2].Product)
				assert.Equal(t, "core-1", infos[0].CoreID)

				empty, err := s.List(ctx, "nobody")
				require.NoError(t, err)
				assert.Empty(t, empty)
			})

			t.Run("delete", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				require.NoError(t, s.Save(ctx, "core-1", "patientsim", []byte("a")))
				require.NoError(t, s.Save(ctx, "core-1", "membersim", []byte("b")))

				require.NoError(t, s.Delete(ctx, "core-1", "patientsim"))
				require.NoError(t, s.Delete(ctx, "core-1", "patientsim"))
				_, err := s.Load(ctx, "core-1", "patientsim")
				assert.ErrorIs(t, err, snapshot.ErrNotFound)

				require.NoError(t, s.DeleteEntity(ctx, "core-1"))
				infos, err := s.List(ctx, "core-1")
				require.NoError(t, err)
				assert.Empty(t, infos)
			})

			t.Run("closed store", func(t *testing.T) {
				s := factory(t)
				require.NoError(t, s.Close())
				require.NoError(t, s.Close())

				assert.ErrorIs(t, s.Save(ctx, "c", "p", nil), snapshot.ErrStoreClosed)
				_, err := s.Load(ctx, "c", "p")
				assert.ErrorIs(t, err, snapshot.ErrStoreClosed)
				_, err = s.List(ctx, "c")
				assert.ErrorIs(t, err, snapshot.ErrStoreClosed)
				assert.ErrorIs(t, s.Delete(ctx, "c", "p"), snapshot.ErrStoreClosed)
				assert.ErrorIs(t, s.DeleteEntity(ctx, "c"), snapshot.ErrStoreClosed)
			})

			t.Run("concurrent saves", func(t *testing.T) {
				s := factory(t)
				defer s.Close()

				var wg sync.WaitGroup
				for i := range 20 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						coreID := fmt.Sprintf("core-%d", i)
						for j := range 5 {
							assert.NoError(t, s.Save(ctx, coreID, "patientsim", []byte{byte(j)}))
						}
					}()
				}
				wg.Wait()

				infos, err := s.List(ctx, "core-7")
				require.NoError(t, err)
				require.Len(t, infos, 1)
				assert.Equal(t, 5, infos[0].Version)
			})
		})
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	ctx := context.Background()
	s := snapshot.NewMemoryStore()

	data := []byte("original")
	require.NoError(t, s.Save(ctx, "core-1", "patientsim", data))
	data[0] = 'X'

	got, err := s.Load(ctx, "core-1", "patientsim")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	got[0] = 'Y'
	again, _ := s.Load(ctx, "core-1", "patientsim")
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := snapshot.NewMemoryStore()
	assert.ErrorIs(t, s.Save(ctx, "core-1", "patientsim", nil), context.Canceled)
}

func TestSQLiteStore_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	first, err := snapshot.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "core-1", "patientsim", []byte("persisted")))
	require.NoError(t, first.Close())

	second, err := snapshot.NewSQLiteStore(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Load(ctx, "core-1", "patientsim")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := snapshot.NewSQLiteStore("/nonexistent/dir/snap.db")
	assert.Error(t, err)
}
