package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// StatusError はサーバーが2xx以外のステータスを返したことを表す。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Message はレスポンスのerrmsg。取得できない場合はボディそのもの。
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, message=%s", e.StatusCode, e.Message)
}

// Client はカレンダーサービスのAPIクライアント。
// 複数のゴルーチンから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string

	mu    sync.RWMutex
	token string
}

// New は新しいAPIクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "http://localhost:8080"）を指定する。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// Token は保持しているセッショントークンを返す。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken はセッショントークンを設定する。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// do はJSON形式のHTTPリクエストを実行し、レスポンスボディを返す共通処理。
// resultがnilでなければボディをデシリアライズする。
func (c *Client) do(ctx context.Context, method, path string, body any, result any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return respBody, nil
}

func newStatusError(status int, body []byte) *StatusError {
	var payload struct {
		Errmsg string `json:"errmsg"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Errmsg != "" {
		return &StatusError{StatusCode: status, Message: payload.Errmsg}
	}
	return &StatusError{StatusCode: status, Message: string(body)}
}

// pathID はIDをパスセグメントとしてエスケープする。
func pathID(prefix, id string) string {
	return prefix + url.PathEscape(id)
}
