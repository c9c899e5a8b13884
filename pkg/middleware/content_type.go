package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON はリクエストのContent-Typeがapplication/jsonであることを検証するGinミドルウェアを返す。
// charset等のパラメータは無視する。それ以外のContent-Typeは406で中断する。
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != gin.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusNotAcceptable, gin.H{
				"errmsg": "Content-Typeが不正です。application/jsonのみ受け付けます",
			})
			return
		}
		c.Next()
	}
}
