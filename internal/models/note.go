package models

import "time"

// Note is a personal sticky note owned by exactly one user.
type Note struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     string    `json:"userId" gorm:"index;size:36"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Color      NoteColor `json:"color" gorm:"size:16"`
	FontSize   FontSize  `json:"fontSize" gorm:"size:16"`
	OrderIndex int       `json:"orderIndex"`
	Timestamp  time.Time `json:"timestamp"`
}
