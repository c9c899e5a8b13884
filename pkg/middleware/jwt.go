package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken はトークンの署名・有効期限・クレームの検証に失敗したことを表す。
var ErrInvalidToken = errors.New("トークンが無効です")

// tokenIssuer はトークンのissクレームに設定する発行者名。
const tokenIssuer = "calendar"

// identityKey はGinコンテキストに認証済みIdentityを格納するキー。
const identityKey = "identity"

// Claims はセッショントークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// Username は認証済みユーザー名。
	Username string `json:"user"`
}

// Identity は検証済みトークンから得られる認証済みユーザーの情報。
type Identity struct {
	// Username は認証済みユーザー名。
	Username string
	// IssuedAt はトークンの発行日時。
	IssuedAt time.Time
}

// TokenIssuer はHS256で署名されたセッショントークンを発行・検証する。
// サーバー側には状態を持たない。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer は新しいTokenIssuerを生成する。
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign はユーザー名を埋め込んだ有効期限付きトークンを生成する。
func (i *TokenIssuer) Sign(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、認証済みIdentityを返す。
// 検証に失敗した場合はErrInvalidTokenを返す。
func (i *TokenIssuer) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Username == "" {
		return Identity{}, ErrInvalidToken
	}

	identity := Identity{Username: claims.Username}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	return identity, nil
}

// JWTAuth はAuthorizationヘッダーのトークンを検証するGinミドルウェアを返す。
// ヘッダーが無い場合もトークンが無効な場合も401で中断し、後続のハンドラは実行されない。
// 検証に成功した場合、コンテキストにIdentityを設定する。
func JWTAuth(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errmsg": "Authorizationヘッダーが必要です",
			})
			return
		}

		// ブラウザクライアントは生のトークンを送るが、Bearer形式も受け付ける
		tokenString := authHeader
		if rest, found := strings.CutPrefix(authHeader, "Bearer "); found {
			tokenString = strings.TrimSpace(rest)
		}

		identity, err := issuer.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errmsg": "認証に失敗しました。トークンが無効です",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity はGinコンテキストから認証済みIdentityを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}

// GetUsername はGinコンテキストから認証済みユーザー名を取得する。
// 未認証の場合は空文字列を返す。
func GetUsername(c *gin.Context) string {
	identity, _ := GetIdentity(c)
	return identity.Username
}
