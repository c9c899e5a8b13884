// Package client はカレンダーサービスのREST APIを呼び出すGoクライアントを提供する。
//
// ログインまたはユーザー登録で得たトークンを保持し、以降のすべてのリクエストに
// AuthorizationヘッダーとしてJSONのContent-Typeと共に付与する。
// 2xx以外の応答は*StatusErrorとして返す。
package client
