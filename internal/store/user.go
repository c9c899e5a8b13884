package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// User は登録済みユーザーを表す。
type User struct {
	// Username はログインに使用する一意のユーザー名。
	Username string
	// Name は表示名。
	Name string
	// PasswordHash はbcryptでハッシュ化したパスワード。
	PasswordHash string
	// DOB は生年月日。
	DOB string
	// Email はメールアドレス。
	Email string
}

// GetUser はユーザー名でユーザーを取得する。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) GetUser(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT username, name, password_hash, dob, email FROM users WHERE username = ?`),
		username,
	).Scan(&u.Username, &u.Name, &u.PasswordHash, &u.DOB, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}
	return u, nil
}

// InsertUser はユーザーを登録する。
// 同じユーザー名が既に存在する場合はErrAlreadyExistsを返す。
func (s *Store) InsertUser(ctx context.Context, u User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM users WHERE username = ?`), u.Username).Scan(&exists)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ユーザーの存在確認に失敗: %w", err)
		}

		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO users (username, name, password_hash, dob, email) VALUES (?, ?, ?, ?, ?)`),
			u.Username, u.Name, u.PasswordHash, u.DOB, u.Email,
		); err != nil {
			return fmt.Errorf("ユーザーの登録に失敗: %w", err)
		}
		return nil
	})
}

// UpdateUser はユーザー名をキーにユーザー情報を上書きする。
// 存在しない場合はErrNotFoundを返す。
func (s *Store) UpdateUser(ctx context.Context, u User) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET name = ?, password_hash = ?, dob = ?, email = ? WHERE username = ?`),
		u.Name, u.PasswordHash, u.DOB, u.Email, u.Username,
	)
	if err != nil {
		return fmt.Errorf("ユーザーの更新に失敗: %w", err)
	}
	return checkAffected(res)
}

// DeleteUser はユーザーと、そのユーザーが所有するイベント・カテゴリを削除する。
// 3つの削除は1つのトランザクションで行い、いずれかが失敗した場合はすべてロールバックする。
// ユーザーが既に存在しない場合もエラーにはしない。
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.deleteOwnedEvents(ctx, tx, username); err != nil {
			return err
		}
		if err := s.deleteOwnedCategories(ctx, tx, username); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE username = ?`), username); err != nil {
			return fmt.Errorf("ユーザーの削除に失敗: %w", err)
		}
		return nil
	})
}
