package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testDB(tb testing.TB) *DB {
	db, err := Open(":memory:")
	require.NoError(tb, err)
	tb.Cleanup(func() {
		require.NoError(tb, db.Close())
	})
	return db
}

func record(id, title string) Record {
	return Record{ID: id, Title: title, Scenario: "greet", Speakers: []string{"kimi_k2"}, Turns: 2}
}

func TestDB(t *testing.T) {
	const testid = "df31ae23ab8b75b5643c2f846c570997edc71333"

	t.Run("list-empty", func(t *testing.T) {
		db := testDB(t)
		require.Empty(t, db.List())
	})

	t.Run("save", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(record(testid, "greet 1")))

		rec, err := db.Find("df31")
		require.NoError(t, err)
		require.Equal(t, testid, rec.ID)
		require.Equal(t, "greet 1", rec.Title)
		require.Equal(t, []string{"kimi_k2"}, rec.Speakers)
		require.False(t, rec.UpdatedAt.IsZero())
		require.Len(t, db.List(), 1)
	})

	t.Run("save no id", func(t *testing.T) {
		db := testDB(t)
		require.Error(t, db.Save(record("", "greet 1")))
	})

	t.Run("save no title", func(t *testing.T) {
		db := testDB(t)
		require.Error(t, db.Save(record(NewID(), " ")))
	})

	t.Run("update", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(record(testid, "greet 1")))
		require.NoError(t, db.Save(record(testid, "greet 2")))

		rec, err := db.Find("df31")
		require.NoError(t, err)
		require.Equal(t, "greet 2", rec.Title)
		require.Len(t, db.List(), 1)
	})

	t.Run("find head", func(t *testing.T) {
		db := testDB(t)

		_, err := db.FindHEAD()
		require.ErrorIs(t, err, ErrNoMatches)

		require.NoError(t, db.Save(record(testid, "older")))
		time.Sleep(10 * time.Millisecond)
		next := NewID()
		require.NoError(t, db.Save(record(next, "newer")))

		head, err := db.FindHEAD()
		require.NoError(t, err)
		require.Equal(t, next, head.ID)
		require.Len(t, db.List(), 2)
	})

	t.Run("find by title", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(record(NewID(), "greet 1")))
		require.NoError(t, db.Save(record(testid, "greet 2")))

		rec, err := db.Find("greet 2")
		require.NoError(t, err)
		require.Equal(t, testid, rec.ID)
	})

	t.Run("short input only matches titles", func(t *testing.T) {
		db := testDB(t)
		require.NoError(t, db.Save(record(testid, "df")))
		require.NoError(t, db.Save(record(NewID(), "other")))

		rec, err := db.Find("df")
		require.NoError(t, err)
		require.Equal(t, testid, rec.ID)

		_, err = db.Find("df3")
		require.ErrorIs(t, err, ErrNoMatches)
	})

	t.Run("find match nothing", func(t *testing.T) {
		db := testDB(t)
		require.NoError(t, db.Save(record(testid, "greet 1")))
		_, err := db.Find("greet")
		require.ErrorIs(t, err, ErrNoMatches)
	})

	t.Run("find match many", func(t *testing.T) {
		db := testDB(t)
		const testid2 = "df31ae23ab9b75b5641c2f846c571000edc71315"
		require.NoError(t, db.Save(record(testid, "greet 1")))
		require.NoError(t, db.Save(record(testid2, "greet 2")))
		_, err := db.Find("df31ae")
		require.ErrorIs(t, err, ErrManyMatches)
	})

	t.Run("delete", func(t *testing.T) {
		db := testDB(t)

		require.NoError(t, db.Save(record(testid, "greet 1")))
		require.NoError(t, db.Delete(NewID()))
		require.Error(t, db.Delete(""))

		list := db.List()
		require.NotEmpty(t, list)
		for _, item := range list {
			require.NoError(t, db.Delete(item.ID))
		}
		require.Empty(t, db.List())
	})

	t.Run("older than", func(t *testing.T) {
		db := testDB(t)
		require.NoError(t, db.Save(record(testid, "greet 1")))
		require.Empty(t, db.ListOlderThan(time.Hour))
		time.Sleep(5 * time.Millisecond)
		require.Len(t, db.ListOlderThan(time.Millisecond), 1)
	})

	t.Run("completions", func(t *testing.T) {
		db := testDB(t)

		const testid1 = "fc5012d8c67073ea0a46a3c05488a0e1d87df74b"
		const title1 = "some title"
		const testid2 = "6c33f71694bf41a18c844a96d1f62f153e5f6f44"
		const title2 = "football teams"
		require.NoError(t, db.Save(record(testid1, title1)))
		require.NoError(t, db.Save(record(testid2, title2)))

		require.Equal(t, []string{
			fmt.Sprintf("%s\t%s", testid1[:SHA1Short], title1),
			fmt.Sprintf("%s\t%s", title2, testid2[:SHA1Short]),
		}, db.Completions("f"))

		require.Equal(t, []string{
			fmt.Sprintf("%s\t%s", testid1, title1),
		}, db.Completions(testid1[:8]))
	})

	t.Run("persists to jsonl index", func(t *testing.T) {
		dir := t.TempDir()

		db, err := Open(dir)
		require.NoError(t, err)
		require.NoError(t, db.Save(record(testid, "greet 1")))
		other := NewID()
		require.NoError(t, db.Save(record(other, "greet 2")))
		require.NoError(t, db.Delete(other))
		require.NoError(t, db.Close())

		db2, err := Open(dir)
		require.NoError(t, err)
		t.Cleanup(func() {
			require.NoError(t, db2.Close())
		})

		rec, err := db2.Find(testid[:8])
		require.NoError(t, err)
		require.Equal(t, testid, rec.ID)
		require.Equal(t, 2, rec.Turns)
		require.Len(t, db2.List(), 1)

		_, err = os.Stat(filepath.Join(dir, indexFileName))
		require.NoError(t, err)
	})

	t.Run("compaction keeps live records", func(t *testing.T) {
		dir := t.TempDir()
		db, err := Open(dir)
		require.NoError(t, err)
		for i := range compactMinOps + 10 {
			require.NoError(t, db.Save(record(testid, fmt.Sprintf("greet %d", i))))
		}
		require.Less(t, db.ops, compactMinOps)

		db2, err := Open(dir)
		require.NoError(t, err)
		rec, err := db2.Find(testid)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("greet %d", compactMinOps+9), rec.Title)
	})

	t.Run("corrupt index", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, indexFileName), []byte("{\"op\":\"nope\"}\n"), 0o600))
		_, err := Open(dir)
		require.ErrorContains(t, err, "line 1")
	})
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	require.Len(t, a, 40)
	require.NotEqual(t, a, b)
}
