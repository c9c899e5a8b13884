package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Category はイベントを分類するカテゴリを表す。
type Category struct {
	// ID はカテゴリの一意識別子。
	ID string
	// Name はカテゴリ名。所有者ごとに一意。
	Name string
	// Color は表示色。
	Color string
	// Description は説明。
	Description string
	// Owner はカテゴリを作成したユーザー名。
	Owner string
}

const categoryColumns = `id, name, color, description, owner`

func scanCategory(row scanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Color, &c.Description, &c.Owner)
	return c, err
}

// GetCategory はIDでカテゴリを取得する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) GetCategory(ctx context.Context, id string) (Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("カテゴリの取得に失敗: %w", err)
	}
	return c, nil
}

// GetCategoryByName は所有者とカテゴリ名でカテゴリを取得する。
// イベント書き込み時に表示色を引くために使用する。
func (s *Store) GetCategoryByName(ctx context.Context, name, owner string) (Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? AND owner = ?`), name, owner))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, ErrNotFound
		}
		return Category{}, fmt.Errorf("カテゴリの取得に失敗: %w", err)
	}
	return c, nil
}

// ListUserCategories は指定ユーザーが所有するカテゴリを名前順で返す。
func (s *Store) ListUserCategories(ctx context.Context, owner string) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+categoryColumns+` FROM categories WHERE owner = ? ORDER BY name, id`), owner)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	categories := make([]Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("カテゴリの読み取りに失敗: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ一覧の取得に失敗: %w", err)
	}
	return categories, nil
}

// InsertCategory はカテゴリを登録する。
// 同じ所有者に同名のカテゴリが既に存在する場合はErrAlreadyExistsを返す。
func (s *Store) InsertCategory(ctx context.Context, c Category) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureCategoryNameFree(ctx, tx, c); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?)`),
			c.ID, c.Name, c.Color, c.Description, c.Owner,
		); err != nil {
			return fmt.Errorf("カテゴリの登録に失敗: %w", err)
		}
		return nil
	})
}

// UpdateCategory はIDをキーにカテゴリを上書きする。所有者は変更しない。
// 存在しない場合はErrNotFound、改名先の名前が同じ所有者で使用済みの場合はErrAlreadyExistsを返す。
func (s *Store) UpdateCategory(ctx context.Context, c Category) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureCategoryNameFree(ctx, tx, c); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.rebind(
			`UPDATE categories SET name = ?, color = ?, description = ? WHERE id = ?`),
			c.Name, c.Color, c.Description, c.ID,
		)
		if err != nil {
			return fmt.Errorf("カテゴリの更新に失敗: %w", err)
		}
		return checkAffected(res)
	})
}

// DeleteCategory はIDでカテゴリを削除する。
// 参照しているイベントは削除しない。存在しない場合はErrNotFoundを返す。
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM categories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("カテゴリの削除に失敗: %w", err)
	}
	return checkAffected(res)
}

// ensureCategoryNameFree は同じ所有者の別カテゴリが同名でないことを確認する。
func (s *Store) ensureCategoryNameFree(ctx context.Context, q queryer, c Category) error {
	var id string
	err := q.QueryRowContext(ctx, s.rebind(
		`SELECT id FROM categories WHERE owner = ? AND name = ? AND id <> ?`), c.Owner, c.Name, c.ID,
	).Scan(&id)
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("カテゴリ名の重複確認に失敗: %w", err)
	}
	return nil
}

func (s *Store) deleteOwnedCategories(ctx context.Context, q queryer, owner string) error {
	if _, err := q.ExecContext(ctx, s.rebind(`DELETE FROM categories WHERE owner = ?`), owner); err != nil {
		return fmt.Errorf("ユーザーのカテゴリ削除に失敗: %w", err)
	}
	return nil
}
