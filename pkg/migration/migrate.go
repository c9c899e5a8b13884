// Package migration はデータベースのスキーママイグレーションを管理する。
// embed.FSに埋め込んだgoose形式のSQLファイルを読み込み、未適用のものだけを順序通りに適用する。
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"

	"github.com/pressly/goose/v3"
)

// Dialect はマイグレーション対象のデータベース方言。
type Dialect = goose.Dialect

const (
	// DialectSQLite はSQLiteを表す。
	DialectSQLite Dialect = goose.DialectSQLite3
	// DialectPostgres はPostgreSQLを表す。
	DialectPostgres Dialect = goose.DialectPostgres
)

// Run はfsysのdir配下にあるマイグレーションを順序通りに適用する。
// 適用済みのマイグレーションはgooseのバージョン管理テーブルで判定してスキップする。
// ファイル名形式: 00001_description.sql（-- +goose Up / -- +goose Down）
func Run(ctx context.Context, db *sql.DB, dialect Dialect, fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return fmt.Errorf("マイグレーションディレクトリの取得に失敗: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return fmt.Errorf("マイグレーションプロバイダーの生成に失敗: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("マイグレーションの適用に失敗: %w", err)
	}

	for _, r := range results {
		log.Printf("[Migration] マイグレーション %s を適用しました (%s)", r.Source.Path, r.Duration)
	}
	return nil
}

// Version は適用済みの最新マイグレーションバージョンを返す。
func Version(ctx context.Context, db *sql.DB, dialect Dialect, fsys fs.FS, dir string) (int64, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("マイグレーションディレクトリの取得に失敗: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db, sub)
	if err != nil {
		return 0, fmt.Errorf("マイグレーションプロバイダーの生成に失敗: %w", err)
	}

	v, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("バージョンの取得に失敗: %w", err)
	}
	return v, nil
}
