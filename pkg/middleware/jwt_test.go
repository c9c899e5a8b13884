package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のトークン署名シークレット。
const testSecret = "test-secret-key-for-unit-tests"

// newTestIssuer はテスト用のTokenIssuerを生成する。
func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer(testSecret, 24*time.Hour)
}

// signClaims は任意のクレームとシークレットでトークンを署名するヘルパー関数。
func signClaims(t *testing.T, method jwt.SigningMethod, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}
	return s
}

// TestTokenIssuerSign はSignメソッドを検証する。
func TestTokenIssuerSign(t *testing.T) {
	t.Parallel()

	t.Run("ユーザー名を含むトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := newTestIssuer().Sign("alice")
		if err != nil {
			t.Fatalf("Sign()でエラーが発生: %v", err)
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if claims.Username != "alice" {
			t.Errorf("Username = %q, want %q", claims.Username, "alice")
		}
		if claims.Subject != "alice" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "alice")
		}
		if claims.Issuer != "calendar" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "calendar")
		}
	})

	t.Run("有効期限がTTL後に設定されること", func(t *testing.T) {
		t.Parallel()

		issuer := NewTokenIssuer(testSecret, 2*time.Hour)
		before := time.Now()
		tokenStr, err := issuer.Sign("bob")
		if err != nil {
			t.Fatalf("Sign()でエラーが発生: %v", err)
		}

		claims := &Claims{}
		if _, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		}); err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}

		expected := before.Add(2 * time.Hour)
		if claims.ExpiresAt.Time.Before(expected.Add(-1*time.Minute)) || claims.ExpiresAt.Time.After(expected.Add(time.Minute)) {
			t.Errorf("ExpiresAt = %v, want around %v", claims.ExpiresAt.Time, expected)
		}
	})
}

// TestTokenIssuerVerify はVerifyメソッドを検証する。
func TestTokenIssuerVerify(t *testing.T) {
	t.Parallel()

	t.Run("署名したトークンからIdentityが得られること", func(t *testing.T) {
		t.Parallel()

		issuer := newTestIssuer()
		before := time.Now().Add(-time.Second)
		tokenStr, err := issuer.Sign("carol")
		if err != nil {
			t.Fatalf("Sign()でエラーが発生: %v", err)
		}

		identity, err := issuer.Verify(tokenStr)
		if err != nil {
			t.Fatalf("Verify()でエラーが発生: %v", err)
		}
		if identity.Username != "carol" {
			t.Errorf("Username = %q, want %q", identity.Username, "carol")
		}
		if identity.IssuedAt.Before(before) {
			t.Errorf("IssuedAt = %v, 呼び出し前の時刻 %v より前", identity.IssuedAt, before)
		}
	})

	t.Run("異なるシークレットのトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := NewTokenIssuer("other-secret", time.Hour).Sign("dave")
		if err != nil {
			t.Fatalf("Sign()でエラーが発生: %v", err)
		}

		if _, err := newTestIssuer().Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("期限切れトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr := signClaims(t, jwt.SigningMethodHS256, testSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
				Issuer:    "calendar",
			},
			Username: "expired",
		})

		if _, err := newTestIssuer().Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("有効期限の無いトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr := signClaims(t, jwt.SigningMethodHS256, testSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Issuer: "calendar"},
			Username:         "forever",
		})

		if _, err := newTestIssuer().Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("HS256以外の署名アルゴリズムはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr := signClaims(t, jwt.SigningMethodHS512, testSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    "calendar",
			},
			Username: "hs512",
		})

		if _, err := newTestIssuer().Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("ユーザー名が空のトークンはErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		tokenStr := signClaims(t, jwt.SigningMethodHS256, testSecret, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				Issuer:    "calendar",
			},
		})

		if _, err := newTestIssuer().Verify(tokenStr); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("壊れた文字列はErrInvalidTokenになること", func(t *testing.T) {
		t.Parallel()

		if _, err := newTestIssuer().Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}

// TestJWTAuth はJWTAuthミドルウェアを検証する。
func TestJWTAuth(t *testing.T) {
	t.Parallel()

	newRouter := func(handlerCalled *bool, captured *Identity) *gin.Engine {
		router := gin.New()
		router.Use(JWTAuth(newTestIssuer()))
		router.GET("/test", func(c *gin.Context) {
			*handlerCalled = true
			if identity, ok := GetIdentity(c); ok {
				*captured = identity
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		return router
	}

	t.Run("生のトークンでリクエストが成功すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := newTestIssuer().Sign("raw-user")
		if err != nil {
			t.Fatalf("Sign()でエラーが発生: %v", err)
		}

		var called bool
		var identity Identity
		router := newRouter(&called, &identity)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", tokenStr)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if identity.Username != "raw-user" {
			t.Errorf("Username = %q, want %q", identity.Username, "raw-user")
		}
	})

	t.Run("Bearer形式のトークンでもリクエストが成功すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := newTestIssuer().Sign("bearer-user")
		if err != nil {
			t.Fatalf("Sign()でエラーが発生: %v", err)
		}

		var called bool
		var identity Identity
		router := newRouter(&called, &identity)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if identity.Username != "bearer-user" {
			t.Errorf("Username = %q, want %q", identity.Username, "bearer-user")
		}
	})

	t.Run("Authorizationヘッダーが無い場合401が返りハンドラーが呼ばれないこと", func(t *testing.T) {
		t.Parallel()

		var called bool
		var identity Identity
		router := newRouter(&called, &identity)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if called {
			t.Error("ハンドラーが呼ばれるべきではない")
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["errmsg"] != "Authorizationヘッダーが必要です" {
			t.Errorf("errmsg = %q, want %q", body["errmsg"], "Authorizationヘッダーが必要です")
		}
	})

	t.Run("無効なトークンで401が返ること", func(t *testing.T) {
		t.Parallel()

		var called bool
		var identity Identity
		router := newRouter(&called, &identity)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "invalid-token-string")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if called {
			t.Error("ハンドラーが呼ばれるべきではない")
		}
	})
}

// TestGetUsername はGetUsername関数を検証する。
func TestGetUsername(t *testing.T) {
	t.Parallel()

	t.Run("Identityが設定されている場合にユーザー名を取得できること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(identityKey, Identity{Username: "erin"})

		if got := GetUsername(c); got != "erin" {
			t.Errorf("GetUsername() = %q, want %q", got, "erin")
		}
	})

	t.Run("Identityが設定されていない場合に空文字列が返ること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		if got := GetUsername(c); got != "" {
			t.Errorf("GetUsername() = %q, want empty string", got)
		}
	})

	t.Run("Identity以外の型の場合に空文字列が返ること", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(identityKey, "not-an-identity")

		if got := GetUsername(c); got != "" {
			t.Errorf("GetUsername() = %q, want empty string", got)
		}
	})
}
