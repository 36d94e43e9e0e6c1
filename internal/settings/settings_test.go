package settings_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdb/internal/settings"
	"askdb/internal/store"
)

func newRepo(t *testing.T) (*settings.Repository, *store.FileStore) {
	t.Helper()
	s, err := store.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)
	return settings.NewRepository(s, zerolog.Nop()), s
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   settings.ConnectionSettings
		want settings.ConnectionSettings
	}{
		{
			name: "all blank",
			in:   settings.ConnectionSettings{},
			want: settings.ConnectionSettings{Host: "localhost", User: "root"},
		},
		{
			name: "password only",
			in:   settings.ConnectionSettings{Password: "x"},
			want: settings.ConnectionSettings{Host: "localhost", User: "root", Password: "x"},
		},
		{
			name: "all set",
			in:   settings.ConnectionSettings{Host: "db", User: "app", Password: "pw", Database: "classicmodels"},
			want: settings.ConnectionSettings{Host: "db", User: "app", Password: "pw", Database: "classicmodels"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, settings.Normalize(tt.in))
		})
	}
}

func TestSavePersistsDefaultsForBlankFields(t *testing.T) {
	ctx := context.Background()
	repo, s := newRepo(t)

	saved, err := repo.Save(ctx, settings.ConnectionSettings{Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, settings.ConnectionSettings{Host: "localhost", User: "root", Password: "x", Database: ""}, saved)

	raw, err := s.Get(ctx, settings.StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"host":"localhost","user":"root","password":"x","database":""}`, raw)
}

func TestSaveOverwritesWholesale(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	_, err := repo.Save(ctx, settings.ConnectionSettings{Host: "a", Database: "first"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, settings.ConnectionSettings{Host: "b"})
	require.NoError(t, err)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ConnectionSettings{Host: "b", User: "root"}, got)
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	tests := []struct {
		name   string
		stored *string
	}{
		{name: "absent"},
		{name: "malformed", stored: ptr("{host:")},
		{name: "null", stored: ptr("null")},
		{name: "wrong shape", stored: ptr(`["a","b"]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo, s := newRepo(t)
			if tt.stored != nil {
				require.NoError(t, s.Set(ctx, settings.StorageKey, *tt.stored))
			}
			got, err := repo.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, settings.Defaults(), got)
		})
	}
}

type failingStore struct{ store.Store }

func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("disk gone") }
func (failingStore) Set(context.Context, string, string) error   { return errors.New("disk gone") }

func TestStoreFailuresAreReported(t *testing.T) {
	ctx := context.Background()
	repo := settings.NewRepository(failingStore{}, zerolog.Nop())

	got, err := repo.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, settings.Defaults(), got)

	_, err = repo.Save(ctx, settings.ConnectionSettings{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestMasked(t *testing.T) {
	c := settings.ConnectionSettings{Host: "h", Password: "secret"}
	assert.Equal(t, "********", c.Masked().Password)
	assert.Equal(t, "secret", c.Password)
	assert.Equal(t, "", settings.Defaults().Masked().Password)
}

func ptr(s string) *string { return &s }

func TestRepositoryOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s := store.NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer s.Close()
	repo := settings.NewRepository(s, zerolog.Nop())
	ctx := context.Background()

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)

	saved, err := repo.Save(ctx, settings.ConnectionSettings{Password: "x", Database: "shop"})
	require.NoError(t, err)
	assert.Equal(t, settings.ConnectionSettings{Host: "localhost", User: "root", Password: "x", Database: "shop"}, saved)

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.True(t, mr.Exists("askdb:"+settings.StorageKey))
}
