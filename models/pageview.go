package models

import "time"

// PageView counts successful human GET requests for one page on one day.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Day       time.Time `gorm:"column:date;uniqueIndex:idx_page_views_day_path;type:date;not null" json:"day"`
	Path      string    `gorm:"uniqueIndex:idx_page_views_day_path;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageViewDay truncates t to local midnight, the key page views are bucketed by.
func PageViewDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
