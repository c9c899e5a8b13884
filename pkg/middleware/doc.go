// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// セッショントークンの発行と検証、認証ガード、Content-Typeの検証、
// パニックリカバリ、CORS設定を含む。
package middleware
