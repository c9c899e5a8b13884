package server

import (
	"bytes"
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/nao1215/calendar/internal/ical"
	"github.com/nao1215/calendar/internal/store"
	"github.com/nao1215/calendar/pkg/middleware"
)

// eventRequest はイベント作成・更新リクエストのJSON構造。
type eventRequest struct {
	// Title はタイトル。
	Title string `json:"title" binding:"required"`
	// StartDate は開始日（YYYY-MM-DD）。
	StartDate string `json:"startDate" binding:"required"`
	// StartTime は開始時刻（HH:MM）。
	StartTime string `json:"startTime" binding:"required"`
	// EndDate は終了日（YYYY-MM-DD）。
	EndDate string `json:"endDate" binding:"required"`
	// EndTime は終了時刻（HH:MM）。
	EndTime string `json:"endTime" binding:"required"`
	// Category は所有者のカテゴリ名。表示色の参照に使う。
	Category string `json:"category" binding:"required"`
	// Location は場所。
	Location string `json:"location"`
	// Notes はメモ。
	Notes string `json:"notes"`
	// Owner は所有者。省略時は認証済みユーザー。
	Owner string `json:"owner"`
}

// eventResponse はイベントのJSONレスポンス構造。
type eventResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	StartTime string `json:"startTime"`
	EndDate   string `json:"endDate"`
	EndTime   string `json:"endTime"`
	Category  string `json:"category"`
	Owner     string `json:"owner"`
	Color     string `json:"color"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

func toEventResponse(e store.Event) eventResponse {
	return eventResponse{
		ID:        e.ID,
		Title:     e.Title,
		StartDate: e.StartDate,
		StartTime: e.StartTime,
		EndDate:   e.EndDate,
		EndTime:   e.EndTime,
		Category:  e.Category,
		Owner:     e.Owner,
		Color:     e.Color,
		Location:  e.Location,
		Notes:     e.Notes,
	}
}

// toEvent はリクエストをイベントに変換する。色はカテゴリからコピーする。
func (r eventRequest) toEvent(id, owner string, category store.Category) store.Event {
	return store.Event{
		ID:        id,
		Title:     r.Title,
		StartDate: r.StartDate,
		StartTime: r.StartTime,
		EndDate:   r.EndDate,
		EndTime:   r.EndTime,
		Category:  r.Category,
		Owner:     owner,
		Color:     category.Color,
		Location:  r.Location,
		Notes:     r.Notes,
	}
}

// resolveCategory は認証済みユーザーが所有するカテゴリを名前で引く。
func (s *Server) resolveCategory(ctx context.Context, name, username string) mo.Result[store.Category] {
	category, err := s.storage.GetCategoryByName(ctx, name, username)
	if err != nil {
		return mo.Err[store.Category](storageError(err, "カテゴリ"))
	}
	return mo.Ok(category)
}

// ownedEvent はイベントを取得し、認証済みユーザーが所有者であることを確認する。
func (s *Server) ownedEvent(ctx context.Context, id, username string) mo.Result[store.Event] {
	e, err := s.storage.GetEvent(ctx, id)
	if err != nil {
		return mo.Err[store.Event](storageError(err, "イベント"))
	}
	return mo.TupleToResult(e, authorizeOwner(e.Owner, username, "イベント"))
}

// handleCreateEvent はイベント作成を処理するハンドラを返す。
// 表示色は同じ所有者の同名カテゴリからコピーする。
func (s *Server) handleCreateEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)

		req, err := bindJSON[eventRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		category, err := s.resolveCategory(ctx, req.Category, username).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		owner := req.Owner
		if owner == "" {
			owner = username
		}
		if err := authorizeOwner(owner, username, "イベント"); err != nil {
			abortWithError(c, err)
			return
		}

		e := req.toEvent(uuid.New().String(), owner, category)
		if err := s.storage.InsertEvent(ctx, e); err != nil {
			abortWithError(c, storageError(err, "イベント"))
			return
		}

		c.JSON(http.StatusCreated, gin.H{"msg": "Event created", "id": e.ID})
	}
}

// handleListEvents は認証済みユーザーのイベント一覧を返すハンドラを返す。
func (s *Server) handleListEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := s.storage.ListUserEvents(c.Request.Context(), middleware.GetUsername(c))
		if err != nil {
			abortWithError(c, err)
			return
		}

		resp := make([]eventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, toEventResponse(e))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// handleExportEvents は認証済みユーザーのイベントをiCalendar形式で返すハンドラを返す。
func (s *Server) handleExportEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)
		events, err := s.storage.ListUserEvents(c.Request.Context(), username)
		if err != nil {
			abortWithError(c, err)
			return
		}

		var buf bytes.Buffer
		skipped, err := ical.Encode(&buf, events, s.now())
		if err != nil {
			log.Printf("iCalendarエクスポートエラー: user=%s: %v", username, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"errmsg": "エクスポートに失敗しました"})
			return
		}
		if skipped > 0 {
			log.Printf("iCalendarエクスポートで%d件のイベントをスキップしました: user=%s", skipped, username)
		}

		c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
	}
}

// handleGetEvent はイベント詳細を返すハンドラを返す。
func (s *Server) handleGetEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		e, err := s.ownedEvent(c.Request.Context(), c.Param("id"), middleware.GetUsername(c)).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, toEventResponse(e))
	}
}

// handleUpdateEvent はイベント更新を処理するハンドラを返す。
// 表示色はその時点のカテゴリから再度コピーする。所有者は変更できない。
func (s *Server) handleUpdateEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := middleware.GetUsername(c)

		req, err := bindJSON[eventRequest](c).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		ctx := c.Request.Context()
		category, err := s.resolveCategory(ctx, req.Category, username).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		current, err := s.ownedEvent(ctx, c.Param("id"), username).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}
		if req.Owner != "" {
			if err := authorizeOwner(req.Owner, username, "イベント"); err != nil {
				abortWithError(c, err)
				return
			}
		}

		if err := s.storage.UpdateEvent(ctx, req.toEvent(current.ID, current.Owner, category)); err != nil {
			abortWithError(c, storageError(err, "イベント"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Success"})
	}
}

// handleDeleteEvent はイベント削除を処理するハンドラを返す。
func (s *Server) handleDeleteEvent() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		e, err := s.ownedEvent(ctx, c.Param("id"), middleware.GetUsername(c)).Get()
		if err != nil {
			abortWithError(c, err)
			return
		}

		if err := s.storage.DeleteEvent(ctx, e.ID); err != nil {
			abortWithError(c, storageError(err, "イベント"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"msg": "Event deleted"})
	}
}
