package middleware

import (
	"errors"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// internalErrorMessage はパニック時にクライアントへ返すerrmsg。
const internalErrorMessage = "内部サーバーエラーが発生しました"

// Recovery はハンドラのパニックを500の{"errmsg": ...}レスポンスに変換するGinミドルウェアを返す。
// 認証済みであればユーザー名をスタックトレースと共にログへ出力する。
// レスポンスを書き始めた後のパニックやクライアント切断による中断では本文を書き足さない。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				log.Printf("[PANIC] %s %s: 接続が中断されました", c.Request.Method, c.Request.URL.Path)
				c.Abort()
				return
			}

			user := GetUsername(c)
			if user == "" {
				user = "-"
			}
			log.Printf("[PANIC] %s %s user=%s: %v\n%s", c.Request.Method, c.Request.URL.Path, user, r, debug.Stack())

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errmsg": internalErrorMessage})
		}()
		c.Next()
	}
}
