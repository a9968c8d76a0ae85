// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package database

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps is embedded into entities to record when they were created
// and last updated.
type Timestamps struct {
	CreatedDate time.Time  `gorm:"not null" json:"created_date"`
	UpdatedDate *time.Time `json:"updated_date"`
}

// BeforeCreate implements gorm's BeforeCreateInterface.
func (t *Timestamps) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedDate.IsZero() {
		t.CreatedDate = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate implements gorm's BeforeUpdateInterface.
func (t *Timestamps) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	t.UpdatedDate = &now
	return nil
}
