package client

// RegisterRequest はユーザー登録の入力。
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	DOB      string `json:"dob,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Profile はユーザーのプロフィール。
type Profile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	DOB      string `json:"dob"`
	Email    string `json:"email"`
}

// ProfileUpdate はプロフィールの部分更新。nilの項目は変更しない。
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
	DOB      *string `json:"dob,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Event はカレンダー上のイベント。
// 作成・更新時、ID・Colorはサーバーが決めるため無視される。
type Event struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	StartTime string `json:"startTime"`
	EndDate   string `json:"endDate"`
	EndTime   string `json:"endTime"`
	Category  string `json:"category"`
	Owner     string `json:"owner,omitempty"`
	Color     string `json:"color,omitempty"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Category はイベントの分類と表示色。
type Category struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// tokenResponse はログイン・登録のレスポンス。
type tokenResponse struct {
	Token string `json:"token"`
	Msg   string `json:"msg"`
}

// createdResponse は作成系APIのレスポンス。
type createdResponse struct {
	Msg string `json:"msg"`
	ID  string `json:"id"`
}
