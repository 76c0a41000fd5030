package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/letieu/reddit-profiler/config"
	"github.com/letieu/reddit-profiler/internal/reddit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 12, 30, 0, 123456789, time.UTC)

var sampleComments = []reddit.Comment{
	{Subreddit: "a", CreatedUTC: 1, Score: 5, Body: "x"},
	{Subreddit: "b", CreatedUTC: 1700000000.5, Score: -1, Body: "y with \"quotes\" and ünïcode"},
	{Subreddit: "a", CreatedUTC: 3, Score: 0, Body: "z"},
}

// eachStore runs fn against every backend with a controllable clock.
func eachStore(t *testing.T, fn func(t *testing.T, s Store, setNow func(time.Time))) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		s.now = func() time.Time { return fixedNow }
		fn(t, s, func(ts time.Time) { s.now = func() time.Time { return ts } })
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "sessions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		s.now = func() time.Time { return fixedNow }
		fn(t, s, func(ts time.Time) { s.now = func() time.Time { return ts } })
	})
}

func TestPutGet_RoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		ctx := context.Background()

		put, err := s.Put(ctx, "spez", sampleComments)
		require.NoError(t, err)
		assert.True(t, fixedNow.Equal(put.FetchedAt))

		got, err := s.Get(ctx, "spez")
		require.NoError(t, err)

		assert.Equal(t, "spez", got.Username)
		assert.Equal(t, sampleComments, got.Comments)
		assert.True(t, fixedNow.Equal(got.FetchedAt))
		assert.Nil(t, got.CachedAnalysis)
	})
}

func TestGet_NotFound(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		_, err := s.Get(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSetAnalysis(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		ctx := context.Background()
		_, err := s.Put(ctx, "spez", sampleComments)
		require.NoError(t, err)

		require.NoError(t, s.SetAnalysis(ctx, "spez", "Likes **Go**.\nTerse."))

		got, err := s.Get(ctx, "spez")
		require.NoError(t, err)
		require.NotNil(t, got.CachedAnalysis)
		assert.Equal(t, "Likes **Go**.\nTerse.", *got.CachedAnalysis)
		assert.Equal(t, sampleComments, got.Comments)
	})
}

func TestSetAnalysis_MissingSession(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		err := s.SetAnalysis(context.Background(), "nobody", "text")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.Get(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNotFound, "no session is created")
	})
}

func TestPut_ReplacesCommentsAndClearsAnalysis(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, setNow func(time.Time)) {
		ctx := context.Background()
		_, err := s.Put(ctx, "spez", sampleComments)
		require.NoError(t, err)
		require.NoError(t, s.SetAnalysis(ctx, "spez", "old analysis"))

		later := fixedNow.Add(time.Hour)
		setNow(later)
		replacement := []reddit.Comment{{Subreddit: "c", CreatedUTC: 9, Score: 42, Body: "new"}}
		_, err = s.Put(ctx, "spez", replacement)
		require.NoError(t, err)

		got, err := s.Get(ctx, "spez")
		require.NoError(t, err)
		assert.Equal(t, replacement, got.Comments)
		assert.Nil(t, got.CachedAnalysis)
		assert.True(t, later.Equal(got.FetchedAt))

		all, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestList_OrderedByUsername(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		ctx := context.Background()
		for _, name := range []string{"zeta", "Alpha", "mike", "bravo"} {
			_, err := s.Put(ctx, name, sampleComments[:1])
			require.NoError(t, err)
		}

		all, err := s.List(ctx)
		require.NoError(t, err)

		var names []string
		for _, sess := range all {
			names = append(names, sess.Username)
		}
		assert.Equal(t, []string{"Alpha", "bravo", "mike", "zeta"}, names)
	})
}

func TestList_Empty(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		all, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestDelete(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store, _ func(time.Time)) {
		ctx := context.Background()
		_, err := s.Put(ctx, "spez", sampleComments)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "spez"))

		_, err = s.Get(ctx, "spez")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "spez"), ErrNotFound)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	input := []reddit.Comment{{Subreddit: "a", Body: "x"}}

	_, err := s.Put(ctx, "spez", input)
	require.NoError(t, err)
	input[0].Body = "mutated"

	got, err := s.Get(ctx, "spez")
	require.NoError(t, err)
	got.Comments[0].Subreddit = "mutated"

	again, err := s.Get(ctx, "spez")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Comments[0].Body)
	assert.Equal(t, "a", again.Comments[0].Subreddit)
}

func TestMemoryStore_ConcurrentWritersSeeWholeSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comments := []reddit.Comment{{Subreddit: fmt.Sprint(i), Body: fmt.Sprint(i)}}
			_, _ = s.Put(ctx, "spez", comments)
			_ = s.SetAnalysis(ctx, "spez", fmt.Sprint("analysis ", i))
			if got, err := s.Get(ctx, "spez"); err == nil {
				assert.Len(t, got.Comments, 1)
				assert.Equal(t, got.Comments[0].Subreddit, got.Comments[0].Body)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "spez")
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)
}

func TestOpen_SelectsBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "memory"
	s, err := Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	cfg.Database.Type = "sqlite"
	cfg.Database.DBName = filepath.Join(t.TempDir(), "profiler.db")
	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLStore{}, s)

	cfg.Database.Type = "libsql"
	cfg.Database.Url = ""
	_, err = Open(cfg)
	var cfgErr *config.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestMigrate_Idempotent(t *testing.T) {
	s, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, Migrate(context.Background(), s.conn))
}
