package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/mo"
	"golang.org/x/crypto/bcrypt"

	"github.com/nao1215/calendar/internal/store"
	"github.com/nao1215/calendar/pkg/middleware"
)

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// createUserRequest はユーザー登録リクエストのJSON構造。
type createUserRequest struct {
	// Username はログインに使用するユーザー名。
	Username string `json:"username" binding:"required"`
	// Password は平文のパスワード。保存時にハッシュ化する。
	Password string `json:"password" binding:"required"`
	// Name は表示名。
	Name string `json:"name"`
	// DOB は生年月日。
	DOB string `json:"dob"`
	// Email はメールアドレス。
	Email string `json:"email"`
}

// updateUserRequest はプロフィール更新リクエストのJSON構造。
// 指定されなかった項目は現在の値を維持する。
type updateUserRequest struct {
	Name     mo.Option[string] `json:"name"`
	Password mo.Option[string] `json:"password"`
	DOB      mo.Option[string] `json:"dob"`
	Email    mo.Option[string] `json:"email"`
}

// tokenResponse はトークンを返すレスポンスのJSON構造。
type tokenResponse struct {
	Token string `json:"token"`
	Msg   string `json:"msg"`
}

// userResponse はプロフィールのJSONレスポンス構造。パスワードは含めない。
type userResponse struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	DOB      string `json:"dob"`
	Email    string `json:"email"`
}

func toUserResponse(u store.User) userResponse {
	return userResponse{
		Username: u.Username,
		Name:     u.Name,
		DOB:      u.DOB,
		Email:    u.Email,
	}
}

// hashPassword はパスワードをbcryptでハッシュ化する。
func (s *Server) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", newRequestError(http.StatusBadRequest, "パスワードが長すぎます")
		}
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hash), nil
}

// handleLogin はログインを処理するハンドラを返す。
// パスワードを照合し、新しいセッショントークンを発行する。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindJSON[loginRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		u, err := s.storage.GetUser(c.Request.Context(), req.Username)
		if err != nil {
			abortWithError(c, storageError(err, "ユーザー"))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
			abortWithError(c, newRequestError(http.StatusUnauthorized, "ユーザー名またはパスワードが正しくありません"))
			return
		}

		s.respondWithToken(c, http.StatusOK, u.Username)
	}
}

// handleCreateUser はユーザー登録を処理するハンドラを返す。
// 登録に成功した場合はそのままログイン済みのトークンを返す。
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindJSON[createUserRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		hash, err := s.hashPassword(req.Password)
		if err != nil {
			abortWithError(c, err)
			return
		}

		if err := s.storage.InsertUser(c.Request.Context(), store.User{
			Username:     req.Username,
			Name:         req.Name,
			PasswordHash: hash,
			DOB:          req.DOB,
			Email:        req.Email,
		}); err != nil {
			abortWithError(c, storageError(err, "ユーザー"))
			return
		}

		log.Printf("ユーザーを登録しました: %s", req.Username)
		s.respondWithToken(c, http.StatusCreated, req.Username)
	}
}

func (s *Server) respondWithToken(c *gin.Context, status int, username string) {
	token, err := s.tokens.Sign(username)
	if err != nil {
		log.Printf("トークン発行エラー: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errmsg": "トークンの発行に失敗しました"})
		return
	}
	c.JSON(status, tokenResponse{Token: token, Msg: "Success"})
}

// handleGetUser は認証済みユーザー自身のプロフィールを返すハンドラを返す。
func (s *Server) handleGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := s.storage.GetUser(c.Request.Context(), middleware.GetUsername(c))
		if err != nil {
			abortWithError(c, storageError(err, "ユーザー"))
			return
		}
		c.JSON(http.StatusOK, toUserResponse(u))
	}
}

// handleUpdateUser は認証済みユーザー自身のプロフィールを部分更新するハンドラを返す。
func (s *Server) handleUpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := bindJSON[updateUserRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		u, err := s.storage.GetUser(ctx, middleware.GetUsername(c))
		if err != nil {
			abortWithError(c, storageError(err, "ユーザー"))
			return
		}

		u.Name = req.Name.OrElse(u.Name)
		u.DOB = req.DOB.OrElse(u.DOB)
		u.Email = req.Email.OrElse(u.Email)
		if password, ok := req.Password.Get(); ok {
			// ログインは空のパスワードを受け付けないため、空への変更も拒否する
			if password == "" {
				abortWithError(c, newRequestError(http.StatusUnprocessableEntity, "必須項目が不足しています: password"))
				return
			}
			hash, err := s.hashPassword(password)
			if err != nil {
				abortWithError(c, err)
				return
			}
			u.PasswordHash = hash
		}

		if err := s.storage.UpdateUser(ctx, u); err != nil {
			abortWithError(c, storageError(err, "ユーザー"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Success"})
	}
}

// handleDeleteUser は認証済みユーザーを削除するハンドラを返す。
// ユーザーが所有するイベントとカテゴリも1つのトランザクションで削除する。
func (s *Server) handleDeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)
		if err := s.storage.DeleteUser(c.Request.Context(), username); err != nil {
			abortWithError(c, err)
			return
		}

		log.Printf("ユーザーを削除しました: %s", username)
		c.JSON(http.StatusOK, gin.H{"msg": "User deleted"})
	}
}
