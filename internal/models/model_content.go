package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/brainac/backend/pkg/types"
)

type Subject struct {
	ID          string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(128);not null;index:idx_subject_name_grade,priority:1" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	Grade       int       `gorm:"column:grade;not null;index:idx_subject_name_grade,priority:2" json:"grade"`
	Icon        string    `gorm:"column:icon;type:varchar(32)" json:"icon"`
	Color       string    `gorm:"column:color;type:varchar(64)" json:"color"`
	VideoCount  int       `gorm:"column:video_count;not null;default:0" json:"videoCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Subject) TableName() string { return "subjects" }

type Unit struct {
	ID          string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	SubjectID   string    `gorm:"column:subject_id;type:varchar(64);not null;index" json:"subjectId"`
	Order       int       `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Unit) TableName() string { return "units" }

type Chapter struct {
	ID          string    `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Name        string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	UnitID      string    `gorm:"column:unit_id;type:varchar(64);not null;index" json:"unitId"`
	SubjectID   string    `gorm:"column:subject_id;type:varchar(64);not null;index" json:"subjectId"`
	Order       int       `gorm:"column:order;not null;default:0" json:"order"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Chapter) TableName() string { return "chapters" }

// Video grade/subject/unit always mirror the owning chapter's ancestry.
type Video struct {
	ID          string                      `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Title       string                      `gorm:"column:title;type:varchar(256);not null" json:"title"`
	Description string                      `gorm:"column:description;type:text" json:"description"`
	SubjectID   string                      `gorm:"column:subject_id;type:varchar(64);not null;index" json:"subjectId"`
	UnitID      string                      `gorm:"column:unit_id;type:varchar(64);not null;index" json:"unitId"`
	ChapterID   string                      `gorm:"column:chapter_id;type:varchar(64);not null;index" json:"chapterId"`
	Grade       int                         `gorm:"column:grade;not null;index" json:"grade"`
	Duration    string                      `gorm:"column:duration;type:varchar(32)" json:"duration"`
	VideoURL    string                      `gorm:"column:video_url;type:text;not null" json:"videoUrl"`
	Thumbnail   string                      `gorm:"column:thumbnail;type:text" json:"thumbnail"`
	Views       int64                       `gorm:"column:views;not null;default:0" json:"views"`
	Likes       int64                       `gorm:"column:likes;not null;default:0" json:"likes"`
	Order       int                         `gorm:"column:order;not null;default:0" json:"order"`
	Category    string                      `gorm:"column:category;type:varchar(64)" json:"category,omitempty"`
	Tags        datatypes.JSONSlice[string] `gorm:"column:tags;type:jsonb" json:"tags"`
	Difficulty  types.Difficulty            `gorm:"column:difficulty;type:varchar(32)" json:"difficulty"`
	CreatedAt   time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (Video) TableName() string { return "videos" }
