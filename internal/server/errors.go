package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/mo"

	"github.com/nao1215/calendar/internal/store"
)

// requestError はクライアントに返すHTTPステータスとメッセージを持つエラー。
// 検証パイプラインの各段はこの値を返し、ハンドラがそのままレスポンスにする。
type requestError struct {
	status int
	msg    string
}

func (e requestError) Error() string {
	return fmt.Sprintf("%d: %s", e.status, e.msg)
}

func newRequestError(status int, format string, args ...any) requestError {
	return requestError{status: status, msg: fmt.Sprintf(format, args...)}
}

// abortWithError はエラーをJSONレスポンスに変換してリクエストを中断する。
// requestError以外はストレージ障害として500を返す。
func abortWithError(c *gin.Context, err error) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		c.AbortWithStatusJSON(reqErr.status, gin.H{"errmsg": reqErr.msg})
		return
	}

	log.Printf("ストレージエラー: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errmsg": "データベースエラーが発生しました"})
}

// storageError はストレージの番兵エラーを404/409のrequestErrorに変換する。
// それ以外のエラーはそのまま返す。
func storageError(err error, entity string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return newRequestError(http.StatusNotFound, "%sが見つかりません", entity)
	case errors.Is(err, store.ErrAlreadyExists):
		return newRequestError(http.StatusConflict, "%sは既に存在します", entity)
	default:
		return err
	}
}

// authorizeOwner は認証済みユーザーがエンティティの所有者かを確認する。
func authorizeOwner(owner, username, entity string) error {
	if owner != username {
		return newRequestError(http.StatusForbidden, "この%sを操作する権限がありません", entity)
	}
	return nil
}

// bindJSON はリクエストボディをTにバインドする。
// ボディが空・JSONとして不正な場合は400、必須項目の欠落は422を返す。
func bindJSON[T any](c *gin.Context) mo.Result[T] {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return mo.Err[T](newRequestError(http.StatusUnprocessableEntity,
				"必須項目が不足しています: %s", strings.Join(fields, ", ")))
		}
		return mo.Err[T](newRequestError(http.StatusBadRequest, "リクエストボディが不正です"))
	}
	return mo.Ok(req)
}

var registerOnce sync.Once

// registerJSONFieldNames は検証エラーのフィールド名にJSONのキー名を使うよう設定する。
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}
