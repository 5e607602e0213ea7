package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LJTian/NewsSpectrum/internal/model"
)

const (
	listCacheTTL     = 5 * time.Minute
	defaultListLimit = 50
	maxListLimit     = 500
	descriptionLimit = 600
)

// News 已入库的新闻条目，写入后不再更新
type News struct {
	ID            string         `gorm:"primaryKey;size:40" json:"id"`
	Title         string         `gorm:"size:512" json:"title"`
	Description   string         `gorm:"size:600" json:"description"`
	URL           string         `gorm:"size:1024;uniqueIndex" json:"url"`
	SourceName    string         `gorm:"size:128;index" json:"sourceName"`
	Bias          string         `gorm:"size:32;index" json:"bias"`
	Category      string         `gorm:"size:32;index" json:"category"`
	Keywords      datatypes.JSON `gorm:"type:jsonb" json:"keywords"`
	ImageURL      string         `gorm:"size:1024" json:"imageUrl"`
	PublishedAt   time.Time      `gorm:"index" json:"publishedAt"`
	PublishedDate string         `gorm:"size:10;index" json:"publishedDate"` // UTC 日期 YYYY-MM-DD，用于按日期筛选

	CreatedAt time.Time `json:"createdAt"`
}

func (News) TableName() string { return "news_items" }

// Item 转回领域模型
func (n News) Item() model.NewsItem {
	var kw []string
	if len(n.Keywords) > 0 {
		_ = json.Unmarshal(n.Keywords, &kw)
	}
	if kw == nil {
		kw = []string{}
	}
	return model.NewsItem{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		URL:         n.URL,
		Source:      model.SourceRef{Name: n.SourceName, Bias: model.Bias(n.Bias)},
		PublishedAt: n.PublishedAt,
		Category:    model.Category(n.Category),
		Keywords:    kw,
		ImageURL:    n.ImageURL,
	}
}

func newsFromItem(it *model.NewsItem) (*News, error) {
	kw := it.Keywords
	if kw == nil {
		kw = []string{}
	}
	raw, err := json.Marshal(kw)
	if err != nil {
		return nil, err
	}
	return &News{
		ID:            it.ID,
		Title:         toValidUTF8(it.Title),
		Description:   truncateRunesDB(toValidUTF8(it.Description), descriptionLimit),
		URL:           it.URL,
		SourceName:    toValidUTF8(it.Source.Name),
		Bias:          string(it.Source.Bias),
		Category:      string(it.Category),
		Keywords:      datatypes.JSON(raw),
		ImageURL:      it.ImageURL,
		PublishedAt:   it.PublishedAt,
		PublishedDate: it.PublishedAt.UTC().Format("2006-01-02"),
	}, nil
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   *zap.Logger
}

func NewStore(dsn, redisAddr string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&SourceRecord{}, &News{}); err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})
	}

	s := NewStoreWithDB(db, rdb, log)
	if rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			s.log.Warn("redis ping failed", zap.Error(err))
		}
	}
	return s, nil
}

// NewStoreWithDB 使用已打开的连接，rdb 可为 nil（不使用缓存）
func NewStoreWithDB(db *gorm.DB, rdb *redis.Client, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{DB: db, Redis: rdb, log: log}
}

func (s *Store) Close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

// truncateRunesDB 按 rune 数截断，保证不超过字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// SaveResult 一批写入的结果
type SaveResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"` // id 或 url 已存在
	Failed   int `json:"failed"`
}

// SaveBatch 逐条 INSERT ... ON CONFLICT DO NOTHING，已存在的记录永远不会被覆盖。
// 单条失败只记录日志，其余条目照常写入；返回值中的 error 汇总了全部单条错误
func (s *Store) SaveBatch(ctx context.Context, items []*model.NewsItem) (SaveResult, error) {
	var (
		res  SaveResult
		errs []error
	)
	db := s.DB.WithContext(ctx)
	for _, it := range items {
		if it == nil {
			continue
		}
		n, err := newsFromItem(it)
		if err == nil {
			tx := db.Clauses(clause.OnConflict{DoNothing: true}).Create(n)
			err = tx.Error
			if err == nil {
				if tx.RowsAffected > 0 {
					res.Inserted++
				} else {
					res.Skipped++
				}
				continue
			}
		}
		res.Failed++
		errs = append(errs, fmt.Errorf("save %s: %w", it.URL, err))
		s.log.Warn("save news item failed", zap.String("id", it.ID), zap.String("url", it.URL), zap.Error(err))
	}

	// 不做缓存失效，依赖短 TTL 自然过期
	s.log.Info("news batch saved",
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
		zap.Int("failed", res.Failed))
	return res, errors.Join(errs...)
}

// Query 新闻列表筛选条件，空字段不筛选
type Query struct {
	Category model.Category
	Bias     model.Bias
	Source   string
	Date     string // YYYY-MM-DD
	Limit    int
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("news:list:%s:%s:%s:%s:%d", q.Category, q.Bias, q.Source, q.Date, q.Limit)
}

// ListNews 按发布时间倒序返回新闻，并使用 Redis 做 5 分钟缓存
func (s *Store) ListNews(ctx context.Context, q Query) ([]model.NewsItem, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = defaultListLimit
	case q.Limit > maxListLimit:
		q.Limit = maxListLimit
	}
	if q.Category == model.CategoryAll {
		q.Category = ""
	}
	key := q.cacheKey()

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, key).Bytes(); err == nil {
			var cached []model.NewsItem
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	db := s.DB.WithContext(ctx).Model(&News{})
	if q.Category != "" {
		db = db.Where("category = ?", string(q.Category))
	}
	if q.Bias != "" {
		db = db.Where("bias = ?", string(q.Bias))
	}
	if q.Source != "" {
		db = db.Where("source_name = ?", q.Source)
	}
	if q.Date != "" {
		db = db.Where("published_date = ?", q.Date)
	}

	var rows []News
	if err := db.Order("published_at DESC").Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]model.NewsItem, 0, len(rows))
	for _, r := range rows {
		list = append(list, r.Item())
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, key, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}
