package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/nao1215/calendar/internal/store"
	"github.com/nao1215/calendar/pkg/middleware"
)

// createCategoryRequest はカテゴリ作成リクエストのJSON構造。
type createCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color" binding:"required"`
	Owner       string `json:"owner" binding:"required"`
	Description string `json:"description"`
}

// updateCategoryRequest はカテゴリ更新リクエストのJSON構造。
// Ownerは指定しても現在の所有者と同じでなければならない。
type updateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color" binding:"required"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

// categoryResponse はカテゴリのJSONレスポンス構造。
type categoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
}

func toCategoryResponse(cat store.Category) categoryResponse {
	return categoryResponse{
		ID:          cat.ID,
		Name:        cat.Name,
		Color:       cat.Color,
		Description: cat.Description,
		Owner:       cat.Owner,
	}
}

// ownedCategory はカテゴリを取得し、認証済みユーザーが所有者であることを確認する。
func (s *Server) ownedCategory(ctx context.Context, id, username string) mo.Result[store.Category] {
	cat, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return mo.Err[store.Category](storageError(err, "カテゴリ"))
	}
	return mo.TupleToResult(cat, authorizeOwner(cat.Owner, username, "カテゴリ"))
}

// handleCreateCategory はカテゴリ作成を処理するハンドラを返す。
// 同じ所有者の中でカテゴリ名は一意でなければならない。
func (s *Server) handleCreateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)

		req, err := bindJSON[createCategoryRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}
		if err := authorizeOwner(req.Owner, username, "カテゴリ"); err != nil {
			abortWithError(c, err)
			return
		}

		cat := store.Category{
			ID:          uuid.New().String(),
			Name:        req.Name,
			Color:       req.Color,
			Description: req.Description,
			Owner:       req.Owner,
		}
		if err := s.storage.InsertCategory(c.Request.Context(), cat); err != nil {
			abortWithError(c, storageError(err, "カテゴリ"))
			return
		}

		c.JSON(http.StatusCreated, gin.H{"msg": "Category created", "id": cat.ID})
	}
}

// handleListCategories は認証済みユーザーのカテゴリ一覧を返すハンドラを返す。
func (s *Server) handleListCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := s.storage.ListUserCategories(c.Request.Context(), middleware.GetUsername(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		resp := make([]categoryResponse, 0, len(categories))
		for _, cat := range categories {
			resp = append(resp, toCategoryResponse(cat))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// handleGetCategory はカテゴリ詳細を返すハンドラを返す。
func (s *Server) handleGetCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := s.ownedCategory(c.Request.Context(), c.Param("id"), middleware.GetUsername(c)).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCategoryResponse(cat))
	}
}

// handleUpdateCategory はカテゴリ更新を処理するハンドラを返す。
// 既存イベントの表示色は更新しない。
func (s *Server) handleUpdateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)

		req, err := bindJSON[updateCategoryRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		current, err := s.ownedCategory(ctx, c.Param("id"), username).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}
		if req.Owner != "" {
			if err := authorizeOwner(req.Owner, current.Owner, "カテゴリ"); err != nil {
				abortWithError(c, err)
				return
			}
		}

		if err := s.storage.UpdateCategory(ctx, store.Category{
			ID:          current.ID,
			Name:        req.Name,
			Color:       req.Color,
			Description: req.Description,
			Owner:       current.Owner,
		}); err != nil {
			abortWithError(c, storageError(err, "カテゴリ"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Success"})
	}
}

// handleDeleteCategory はカテゴリ削除を処理するハンドラを返す。
// カテゴリを参照しているイベントはそのまま残る。
func (s *Server) handleDeleteCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cat, err := s.ownedCategory(ctx, c.Param("id"), middleware.GetUsername(c)).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		if err := s.storage.DeleteCategory(ctx, cat.ID); err != nil {
			abortWithError(c, storageError(err, "カテゴリ"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Category deleted"})
	}
}
