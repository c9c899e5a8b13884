package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// corsAllowMethods はカレンダーAPIが使うHTTPメソッド。
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	// corsAllowHeaders はブラウザクライアントが送るリクエストヘッダー。
	corsAllowHeaders = "Authorization, Content-Type"
)

// CORS はFRONTEND_URLで指定されたオリジンからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// ブラウザのカレンダークライアントはAuthorizationヘッダーに生のトークンを載せて送るため、
// 許可ヘッダーにAuthorizationを含める。"*" を指定すると任意のオリジンを許可する。
// プリフライト（OPTIONS）は後段の認証ガードに渡さず204で応答する。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAny := false
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		origins[o] = struct{}{}
	}

	allowed := func(origin string) bool {
		if origin == "" {
			return false
		}
		_, ok := origins[origin]
		return ok || allowAny
	}

	return func(c *gin.Context) {
		// 応答がOriginごとに変わるため、キャッシュに区別させる
		c.Header("Vary", "Origin")

		if origin := c.GetHeader("Origin"); allowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
