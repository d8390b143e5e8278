package events

import "time"

type Event struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title         string    `json:"title" gorm:"not null;index"`
	Description   *string   `json:"description,omitempty"`
	Type          string    `json:"type" gorm:"column:type;not null"`
	DatetimeStart time.Time `json:"datetime_start" gorm:"not null;index"`
	Provider      string    `json:"provider" gorm:"not null"`
}

func (Event) TableName() string { return "events" }

// SearchQuery represents query parameters for event search
type SearchQuery struct {
	Query    string `form:"query"`
	Date     string `form:"date" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=20"`
}

// Normalize applies the documented defaults and caps.
func (q *SearchQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 20 {
		q.PageSize = 20
	}
}
