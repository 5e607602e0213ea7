package storage

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
)

// SourceRecord 目录中数据源的持久化副本，便于在库里按来源统计
type SourceRecord struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	Name     string `gorm:"size:128" json:"name"`
	Kind     string `gorm:"size:32;index" json:"kind"`
	Endpoint string `gorm:"size:512" json:"endpoint"`
	Category string `gorm:"size:32;index" json:"category"`
	Bias     string `gorm:"size:32;index" json:"bias"`
	Status   string `gorm:"size:32;index" json:"status"` // active / disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SourceRecord) TableName() string { return "sources" }

// EnsureSources 按目录同步数据源表：目录是唯一来源，已存在的记录被更新。
// enabled 中的 ID 标记为 active，其余为 disabled
func (s *Store) EnsureSources(ctx context.Context, sources []catalog.Source, enabled map[string]bool) error {
	if len(sources) == 0 {
		return nil
	}
	records := make([]SourceRecord, 0, len(sources))
	for _, src := range sources {
		status := "disabled"
		if enabled[src.ID] {
			status = "active"
		}
		records = append(records, SourceRecord{
			ID:       src.ID,
			Name:     src.Name,
			Kind:     string(src.Kind),
			Endpoint: src.Endpoint,
			Category: string(src.Category),
			Bias:     string(src.Bias),
			Status:   status,
		})
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "kind", "endpoint", "category", "bias", "status", "updated_at"}),
	}).Create(&records).Error
}
