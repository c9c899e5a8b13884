package client

import (
	"context"
	"net/http"
)

// Register はユーザーを登録し、発行されたトークンを保持する。
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	var resp tokenResponse
	if _, err := c.do(ctx, http.MethodPost, "/user/create", req, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

// Login はログインし、発行されたトークンを保持する。
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}

	var resp tokenResponse
	if _, err := c.do(ctx, http.MethodPost, "/user/login", body, &resp); err != nil {
		return err
	}
	c.SetToken(resp.Token)
	return nil
}

// Me はログイン中のユーザーのプロフィールを取得する。
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var p Profile
	_, err := c.do(ctx, http.MethodGet, "/user/", nil, &p)
	return p, err
}

// UpdateMe はログイン中のユーザーのプロフィールを部分更新する。
func (c *Client) UpdateMe(ctx context.Context, update ProfileUpdate) error {
	_, err := c.do(ctx, http.MethodPut, "/user/", update, nil)
	return err
}

// DeleteMe はログイン中のユーザーを退会させ、保持しているトークンを破棄する。
func (c *Client) DeleteMe(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodDelete, "/user/", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// CreateEvent はイベントを作成し、採番されたIDを返す。
func (c *Client) CreateEvent(ctx context.Context, e Event) (string, error) {
	var resp createdResponse
	if _, err := c.do(ctx, http.MethodPost, "/event/create", e, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListEvents はログイン中のユーザーのイベント一覧を取得する。
func (c *Client) ListEvents(ctx context.Context) ([]Event, error) {
	var events []Event
	if _, err := c.do(ctx, http.MethodGet, "/event/all", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetEvent はイベントを取得する。
func (c *Client) GetEvent(ctx context.Context, id string) (Event, error) {
	var e Event
	_, err := c.do(ctx, http.MethodGet, pathID("/event/", id), nil, &e)
	return e, err
}

// UpdateEvent はイベントを更新する。
func (c *Client) UpdateEvent(ctx context.Context, id string, e Event) error {
	_, err := c.do(ctx, http.MethodPut, pathID("/event/", id), e, nil)
	return err
}

// DeleteEvent はイベントを削除する。
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, pathID("/event/", id), nil, nil)
	return err
}

// ExportEvents はログイン中のユーザーのイベントをiCalendar形式で取得する。
func (c *Client) ExportEvents(ctx context.Context) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/event/export", nil, nil)
}

// CreateCategory はカテゴリを作成し、採番されたIDを返す。
func (c *Client) CreateCategory(ctx context.Context, cat Category) (string, error) {
	var resp createdResponse
	if _, err := c.do(ctx, http.MethodPost, "/category/create", cat, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListCategories はログイン中のユーザーのカテゴリ一覧を取得する。
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if _, err := c.do(ctx, http.MethodGet, "/category/all", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetCategory はカテゴリを取得する。
func (c *Client) GetCategory(ctx context.Context, id string) (Category, error) {
	var cat Category
	_, err := c.do(ctx, http.MethodGet, pathID("/category/", id), nil, &cat)
	return cat, err
}

// UpdateCategory はカテゴリを更新する。
func (c *Client) UpdateCategory(ctx context.Context, id string, cat Category) error {
	_, err := c.do(ctx, http.MethodPut, pathID("/category/", id), cat, nil)
	return err
}

// DeleteCategory はカテゴリを削除する。
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, pathID("/category/", id), nil, nil)
	return err
}
