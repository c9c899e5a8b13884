package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Event はカレンダー上のイベントを表す。
type Event struct {
	// ID はイベントの一意識別子。
	ID string
	// Title はタイトル。
	Title string
	// StartDate は開始日。
	StartDate string
	// StartTime は開始時刻。
	StartTime string
	// EndDate は終了日。
	EndDate string
	// EndTime は終了時刻。
	EndTime string
	// Category は参照するカテゴリ名。
	Category string
	// Owner はイベントを作成したユーザー名。
	Owner string
	// Color は書き込み時点でカテゴリからコピーした表示色。
	Color string
	// Location は場所。
	Location string
	// Notes はメモ。
	Notes string
}

const eventColumns = `id, title, start_date, start_time, end_date, end_time, category, owner, color, location, notes`

// scanner は*sql.Rowと*sql.Rowsに共通するScanメソッド。
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.StartDate, &e.StartTime, &e.EndDate, &e.EndTime,
		&e.Category, &e.Owner, &e.Color, &e.Location, &e.Notes)
	return e, err
}

// GetEvent はIDでイベントを取得する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) GetEvent(ctx context.Context, id string) (Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+eventColumns+` FROM events WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("イベントの取得に失敗: %w", err)
	}
	return e, nil
}

// ListUserEvents は指定ユーザーが所有するイベントを開始日時の昇順で返す。
func (s *Store) ListUserEvents(ctx context.Context, owner string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+eventColumns+` FROM events WHERE owner = ? ORDER BY start_date, start_time, id`), owner)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("イベントの読み取りに失敗: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗: %w", err)
	}
	return events, nil
}

// InsertEvent はイベントを登録する。
func (s *Store) InsertEvent(ctx context.Context, e Event) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		e.ID, e.Title, e.StartDate, e.StartTime, e.EndDate, e.EndTime,
		e.Category, e.Owner, e.Color, e.Location, e.Notes,
	); err != nil {
		return fmt.Errorf("イベントの登録に失敗: %w", err)
	}
	return nil
}

// UpdateEvent はIDをキーにイベントを上書きする。所有者は変更しない。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) UpdateEvent(ctx context.Context, e Event) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE events SET title = ?, start_date = ?, start_time = ?, end_date = ?, end_time = ?,
		category = ?, color = ?, location = ?, notes = ? WHERE id = ?`),
		e.Title, e.StartDate, e.StartTime, e.EndDate, e.EndTime,
		e.Category, e.Color, e.Location, e.Notes, e.ID,
	)
	if err != nil {
		return fmt.Errorf("イベントの更新に失敗: %w", err)
	}
	return checkAffected(res)
}

// DeleteEvent はIDでイベントを削除する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("イベントの削除に失敗: %w", err)
	}
	return checkAffected(res)
}

func (s *Store) deleteOwnedEvents(ctx context.Context, q queryer, owner string) error {
	if _, err := q.ExecContext(ctx, s.rebind(`DELETE FROM events WHERE owner = ?`), owner); err != nil {
		return fmt.Errorf("ユーザーのイベント削除に失敗: %w", err)
	}
	return nil
}
