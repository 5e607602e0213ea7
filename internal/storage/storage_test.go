package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/LJTian/NewsSpectrum/internal/catalog"
	"github.com/LJTian/NewsSpectrum/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewStoreWithDB(db, nil, nil), mock
}

func sampleItem(id, url string) *model.NewsItem {
	return &model.NewsItem{
		ID:          id,
		Title:       "Fed raises rates",
		Description: "desc",
		URL:         url,
		Source:      model.SourceRef{Name: "Reuters", Bias: model.BiasCentrist},
		PublishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Category:    model.CategoryEconomy,
		Keywords:    []string{"fed", "rates"},
	}
}

var insertNews = regexp.QuoteMeta(`INSERT INTO "news_items"`) + `.*ON CONFLICT DO NOTHING`

func TestSaveBatchCountsInsertedAndSkipped(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(insertNews).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertNews).WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := s.SaveBatch(context.Background(), []*model.NewsItem{
		sampleItem("a", "https://example.com/a"),
		sampleItem("b", "https://example.com/b"),
	})
	require.NoError(t, err)
	assert.Equal(t, SaveResult{Inserted: 1, Skipped: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBatchContinuesAfterEntryFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(insertNews).WillReturnError(errors.New("invalid byte sequence"))
	mock.ExpectExec(insertNews).WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := s.SaveBatch(context.Background(), []*model.NewsItem{
		sampleItem("a", "https://example.com/a"),
		nil,
		sampleItem("b", "https://example.com/b"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://example.com/a")
	assert.Equal(t, SaveResult{Inserted: 1, Failed: 1}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNewsFiltersAndDecodes(t *testing.T) {
	s, mock := newMockStore(t)
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "description", "url", "source_name", "bias", "category", "keywords", "image_url", "published_at", "published_date", "created_at"}).
		AddRow("a", "Fed raises rates", "desc", "https://example.com/a", "Reuters", "centrist", "economy", []byte(`["fed","rates"]`), "", published, "2024-05-01", published).
		AddRow("b", "No keywords", "", "https://example.com/b", "Reuters", "centrist", "economy", []byte(`[]`), "", published, "2024-05-01", published)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "news_items" WHERE category = $1 AND bias = $2 ORDER BY published_at DESC`)).
		WillReturnRows(rows)

	list, err := s.ListNews(context.Background(), Query{Category: model.CategoryEconomy, Bias: model.BiasCentrist})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"fed", "rates"}, list[0].Keywords)
	assert.Equal(t, model.BiasCentrist, list[0].Source.Bias)
	assert.Equal(t, model.CategoryEconomy, list[0].Category)
	assert.NotNil(t, list[1].Keywords)
	assert.Empty(t, list[1].Keywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListNewsAllCategoryDoesNotFilter(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "news_items" ORDER BY published_at DESC LIMIT $1`)).
		WithArgs(maxListLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	list, err := s.ListNews(context.Background(), Query{Category: model.CategoryAll, Limit: 10000})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSourcesUpserts(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "sources"`) + `.*` + regexp.QuoteMeta(`ON CONFLICT ("id") DO UPDATE SET`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := s.EnsureSources(context.Background(), []catalog.Source{
		{ID: "bbc-world", Name: "BBC News", Kind: model.KindRSS, Category: model.CategoryWorld, Bias: model.BiasCentrist},
		{ID: "newsapi", Name: "NewsAPI", Kind: model.KindNewsAPI, Bias: model.BiasUnclear},
	}, map[string]bool{"bbc-world": true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.NoError(t, s.EnsureSources(context.Background(), nil, nil))
}

func TestNewsFromItemSanitizes(t *testing.T) {
	it := sampleItem("a", "https://example.com/a")
	it.Title = "bad \xff byte"
	it.Keywords = nil
	long := make([]rune, descriptionLimit+20)
	for i := range long {
		long[i] = '字'
	}
	it.Description = string(long)

	n, err := newsFromItem(it)
	require.NoError(t, err)
	assert.Equal(t, "bad � byte", n.Title)
	assert.Len(t, []rune(n.Description), descriptionLimit)
	assert.JSONEq(t, `[]`, string(n.Keywords))
	assert.Equal(t, "2024-05-01", n.PublishedDate)
}

func TestTruncateRunesDB(t *testing.T) {
	assert.Equal(t, "", truncateRunesDB("abc", 0))
	assert.Equal(t, "ab", truncateRunesDB("abc", 2))
	assert.Equal(t, "abc", truncateRunesDB("abc", 5))
}
