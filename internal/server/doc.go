// Package server はカレンダーサービスのHTTPサーバーを提供する。
//
// ユーザー・イベント・カテゴリのREST APIを公開する。各ハンドラは
// 認証・Content-Type・ボディ・必須項目・所有者の順に検証し、
// ストレージの結果をHTTPステータスに変換する。認証とContent-Typeの検証は
// pkg/middlewareのガードが担当し、ハンドラは認証済みのユーザー名だけを扱う。
package server
