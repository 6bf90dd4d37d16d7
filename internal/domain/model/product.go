package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Gender string

const (
	GenderWomen  Gender = "women"
	GenderMen    Gender = "men"
	GenderUnisex Gender = "unisex"
)

// 香水
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Brand       string `gorm:"type:varchar(255);not null;default:'';index" json:"brand"`
	Description string `gorm:"type:text" json:"description"`
	Gender      Gender `gorm:"type:varchar(20);not null;default:'unisex'" json:"gender"`
	//EDP / EDT / parfum / cologne
	Concentration string `gorm:"type:varchar(30);not null;default:''" json:"concentration"`
	VolumeML      int    `gorm:"column:volume_ml;not null;default:0" json:"volume_ml"`

	//香調（カンマ区切り）
	TopNotes   string `gorm:"type:text;not null;default:''" json:"top_notes"`
	HeartNotes string `gorm:"type:text;not null;default:''" json:"heart_notes"`
	BaseNotes  string `gorm:"type:text;not null;default:''" json:"base_notes"`

	ImageURL  string         `gorm:"column:image_url;type:varchar(1024);not null;default:''" json:"image_url"`
	Price     int64          `gorm:"not null" json:"price"`
	Stock     int64          `gorm:"not null" json:"stock"`
	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Notesは全ての香調を小文字で返す（重複なし、出現順）
func (p Product) Notes() []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, group := range []string{p.TopNotes, p.HeartNotes, p.BaseNotes} {
		for _, n := range strings.Split(group, ",") {
			n = strings.ToLower(strings.TrimSpace(n))
			if n == "" {
				continue
			}
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
