// Package ical はユーザーのイベントをiCalendar（RFC 5545）形式に変換する。
package ical

import (
	"fmt"
	"io"
	"log"
	"time"

	goical "github.com/emersion/go-ical"

	"github.com/nao1215/calendar/internal/store"
)

const (
	// productID はVCALENDARのPRODIDに設定する値。
	productID = "-//nao1215//calendar//JA"
	// dateLayout はイベントの日付の形式。
	dateLayout = "2006-01-02"
	// timeLayout はイベントの時刻の形式。
	timeLayout = "15:04"
	// propColor はRFC 7986で定義された表示色プロパティ。
	propColor = "COLOR"
)

// Encode はイベント一覧をVCALENDARとしてwに書き出す。
// 日付・時刻を解釈できないイベントは出力せず、その件数を返す。
func Encode(w io.Writer, events []store.Event, now time.Time) (int, error) {
	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, productID)

	skipped := 0
	for _, e := range events {
		vevent, err := toVEvent(e, now)
		if err != nil {
			log.Printf("[iCal] イベント %s を出力対象から除外しました: %v", e.ID, err)
			skipped++
			continue
		}
		cal.Children = append(cal.Children, vevent.Component)
	}

	// go-icalのエンコーダは子コンポーネントの無いVCALENDARを受け付けないため、空の場合は直接書き出す
	if len(cal.Children) == 0 {
		if _, err := fmt.Fprintf(w, "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:%s\r\nEND:VCALENDAR\r\n", productID); err != nil {
			return skipped, fmt.Errorf("iCalendarの書き出しに失敗: %w", err)
		}
		return skipped, nil
	}

	if err := goical.NewEncoder(w).Encode(cal); err != nil {
		return skipped, fmt.Errorf("iCalendarのエンコードに失敗: %w", err)
	}
	return skipped, nil
}

func toVEvent(e store.Event, now time.Time) (*goical.Event, error) {
	start, err := parseDateTime(e.StartDate, e.StartTime)
	if err != nil {
		return nil, fmt.Errorf("開始日時が不正です: %w", err)
	}
	end, err := parseDateTime(e.EndDate, e.EndTime)
	if err != nil {
		return nil, fmt.Errorf("終了日時が不正です: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("終了日時が開始日時より前です")
	}

	vevent := goical.NewEvent()
	vevent.Props.SetText(goical.PropUID, e.ID)
	vevent.Props.SetDateTime(goical.PropDateTimeStamp, now.UTC())
	vevent.Props.SetDateTime(goical.PropDateTimeStart, start)
	vevent.Props.SetDateTime(goical.PropDateTimeEnd, end)
	vevent.Props.SetText(goical.PropSummary, e.Title)
	if e.Location != "" {
		vevent.Props.SetText(goical.PropLocation, e.Location)
	}
	if e.Notes != "" {
		vevent.Props.SetText(goical.PropDescription, e.Notes)
	}
	if e.Category != "" {
		vevent.Props.SetText(goical.PropCategories, e.Category)
	}
	if e.Color != "" {
		vevent.Props.SetText(propColor, e.Color)
	}
	return vevent, nil
}

// parseDateTime は日付と時刻の文字列をUTCの時刻に変換する。
func parseDateTime(date, clock string) (time.Time, error) {
	return time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, time.UTC)
}
