package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/nao1215/calendar/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	// ErrNotFound は対象のエンティティが存在しないことを表す。
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists は一意であるべきエンティティが既に存在することを表す。
	ErrAlreadyExists = errors.New("already exists")
)

const (
	// DriverSQLite は組み込みSQLite（modernc.org/sqlite）を表すドライバ名。
	DriverSQLite = "sqlite"
	// DriverPgx はPostgreSQL（pgx stdlib）を表すドライバ名。
	DriverPgx = "pgx"
)

// Store はユーザー・イベント・カテゴリの永続化を担うストレージゲートウェイ。
// エンティティごとにget/insert/update/deleteの操作を提供する。
type Store struct {
	// db はデータベース接続。
	db *sql.DB
	// driver はSQLプレースホルダの形式を決めるドライバ名。
	driver string
}

// New は既存のデータベース接続からStoreを生成する。
// マイグレーションは実行しない。
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Open はデータベースに接続し、スキーママイグレーションを適用したStoreを返す。
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	dialect, err := dialectOf(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	if err := migration.Run(ctx, db, dialect, migrations, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	if v, err := migration.Version(ctx, db, dialect, migrations, "migrations"); err == nil {
		log.Printf("[Store] %s スキーマバージョン: %d", driver, v)
	}

	return New(db, driver), nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping はデータベースへの疎通を確認する。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func dialectOf(driver string) (migration.Dialect, error) {
	switch driver {
	case DriverSQLite:
		return migration.DialectSQLite, nil
	case DriverPgx:
		return migration.DialectPostgres, nil
	default:
		return "", fmt.Errorf("未対応のデータベースドライバです: %s", driver)
	}
}

// rebind は ? プレースホルダをドライバに合わせた形式に書き換える。
// PostgreSQLでは $1, $2, ... に置き換える。
func (s *Store) rebind(query string) string {
	if s.driver != DriverPgx {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// queryer は*sql.DBと*sql.Txに共通するクエリ実行メソッド。
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx はfnを1つのトランザクション内で実行する。
// fnがエラーを返した場合はロールバックする。
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗: %w", err)
	}
	return nil
}

// checkAffected は更新・削除で1行も影響が無かった場合にErrNotFoundを返す。
func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("影響行数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
