package store

import (
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore はテスト用のSQLiteストアを一時ディレクトリに作成する。
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "calendar.db") + "?_pragma=busy_timeout(5000)"
	s, err := Open(t.Context(), DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleEvent(id, owner, category string) Event {
	return Event{
		ID:        id,
		Title:     "打ち合わせ",
		StartDate: "2017-06-01",
		StartTime: "10:00",
		EndDate:   "2017-06-01",
		EndTime:   "11:00",
		Category:  category,
		Owner:     owner,
		Color:     "#ff0000",
		Location:  "会議室A",
		Notes:     "資料持参",
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(t.Context(), "mysql", "whatever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestRebind(t *testing.T) {
	t.Parallel()

	query := `SELECT id FROM events WHERE owner = ? AND id = ?`

	sqlite := New(nil, DriverSQLite)
	assert.Equal(t, query, sqlite.rebind(query))

	pg := New(nil, DriverPgx)
	assert.Equal(t, `SELECT id FROM events WHERE owner = $1 AND id = $2`, pg.rebind(query))
}

func TestUser_CRUD(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := t.Context()

	u := User{Username: "alice", Name: "Alice", PasswordHash: "hash", DOB: "1990-01-01", Email: "alice@example.com"}
	require.NoError(t, s.InsertUser(ctx, u))

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u, got)

	err = s.InsertUser(ctx, User{Username: "alice", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	u.Name = "Alice Liddell"
	u.Email = "liddell@example.com"
	require.NoError(t, s.UpdateUser(ctx, u))

	got, err = s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", got.Name)
	assert.Equal(t, "liddell@example.com", got.Email)

	err = s.UpdateUser(ctx, User{Username: "nobody"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser_Cascade(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.InsertUser(ctx, User{Username: "alice", PasswordHash: "h"}))
	require.NoError(t, s.InsertUser(ctx, User{Username: "bob", PasswordHash: "h"}))
	require.NoError(t, s.InsertCategory(ctx, Category{ID: "c1", Name: "work", Color: "red", Owner: "alice"}))
	require.NoError(t, s.InsertCategory(ctx, Category{ID: "c2", Name: "work", Color: "blue", Owner: "bob"}))
	require.NoError(t, s.InsertEvent(ctx, sampleEvent("e1", "alice", "work")))
	require.NoError(t, s.InsertEvent(ctx, sampleEvent("e2", "bob", "work")))

	require.NoError(t, s.DeleteUser(ctx, "alice"))

	_, err := s.GetUser(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetEvent(ctx, "e1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetCategory(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)

	// 他ユーザーのデータは残る
	_, err = s.GetEvent(ctx, "e2")
	assert.NoError(t, err)
	_, err = s.GetCategory(ctx, "c2")
	assert.NoError(t, err)

	// 削除済みユーザーの再削除はエラーにならない
	assert.NoError(t, s.DeleteUser(ctx, "alice"))
}

func TestDeleteUser_RollbackOnFailure(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := New(db, DriverSQLite)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM events WHERE owner = ?`)).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE owner = ?`)).
		WithArgs("alice").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = s.DeleteUser(t.Context(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEvent_CRUD(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := t.Context()

	e := sampleEvent("e1", "alice", "work")
	require.NoError(t, s.InsertEvent(ctx, e))

	got, err := s.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	e.Title = "振り返り"
	e.Color = "#00ff00"
	e.Owner = "mallory"
	require.NoError(t, s.UpdateEvent(ctx, e))

	got, err = s.GetEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "振り返り", got.Title)
	assert.Equal(t, "#00ff00", got.Color)
	assert.Equal(t, "alice", got.Owner, "所有者は更新で変わらない")

	assert.ErrorIs(t, s.UpdateEvent(ctx, sampleEvent("missing", "alice", "work")), ErrNotFound)

	require.NoError(t, s.DeleteEvent(ctx, "e1"))
	_, err = s.GetEvent(ctx, "e1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteEvent(ctx, "e1"), ErrNotFound)
}

func TestListUserEvents(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := t.Context()

	late := sampleEvent("e-late", "alice", "work")
	late.StartDate = "2017-06-03"
	early := sampleEvent("e-early", "alice", "work")
	early.StartDate = "2017-06-01"
	other := sampleEvent("e-other", "bob", "work")

	for _, e := range []Event{late, early, other} {
		require.NoError(t, s.InsertEvent(ctx, e))
	}

	events, err := s.ListUserEvents(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e-early", events[0].ID)
	assert.Equal(t, "e-late", events[1].ID)

	none, err := s.ListUserEvents(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCategory_CRUD(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := t.Context()

	c := Category{ID: "c1", Name: "work", Color: "red", Description: "仕事", Owner: "alice"}
	require.NoError(t, s.InsertCategory(ctx, c))

	got, err := s.GetCategory(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	byName, err := s.GetCategoryByName(ctx, "work", "alice")
	require.NoError(t, err)
	assert.Equal(t, "c1", byName.ID)

	_, err = s.GetCategoryByName(ctx, "work", "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	// 同じ所有者の同名カテゴリは登録できない
	err = s.InsertCategory(ctx, Category{ID: "c2", Name: "work", Color: "blue", Owner: "alice"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// 別の所有者なら同名でも登録できる
	require.NoError(t, s.InsertCategory(ctx, Category{ID: "c3", Name: "work", Color: "blue", Owner: "bob"}))

	c.Color = "green"
	c.Description = "業務"
	require.NoError(t, s.UpdateCategory(ctx, c))
	got, err = s.GetCategory(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "green", got.Color)
	assert.Equal(t, "業務", got.Description)

	require.NoError(t, s.InsertCategory(ctx, Category{ID: "c4", Name: "home", Color: "yellow", Owner: "alice"}))
	renamed := c
	renamed.Name = "home"
	assert.ErrorIs(t, s.UpdateCategory(ctx, renamed), ErrAlreadyExists)

	assert.ErrorIs(t, s.UpdateCategory(ctx, Category{ID: "missing", Name: "x", Owner: "alice"}), ErrNotFound)

	list, err := s.ListUserCategories(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "home", list[0].Name)
	assert.Equal(t, "work", list[1].Name)

	require.NoError(t, s.DeleteCategory(ctx, "c1"))
	_, err = s.GetCategory(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, "c1"), ErrNotFound)
}
