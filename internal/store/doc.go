// Package store はカレンダーサービスのストレージゲートウェイを提供する。
//
// ユーザー・イベント・カテゴリのエンティティごとにget/insert/update/deleteの
// プリミティブを持ち、database/sql越しにSQLite（既定）またはPostgreSQLへ永続化する。
// 所有者の検証はハンドラ側の責務であり、このパッケージは行わない。
package store
