package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type item struct {
	ID   uint
	Name string
	Kind string
}

func setupItems(t *testing.T, n int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, db.AutoMigrate(&item{}))
	for i := 1; i <= n; i++ {
		kind := "even"
		if i%2 == 1 {
			kind = "odd"
		}
		require.NoError(t, db.Create(&item{Name: fmt.Sprintf("item-%02d", i), Kind: kind}).Error)
	}
	return db
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"zero values", PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"negative page", PageRequest{Page: -3, PageSize: 10}, PageRequest{Page: 1, PageSize: 10}},
		{"oversized page", PageRequest{Page: 2, PageSize: 500}, PageRequest{Page: 2, PageSize: MaxPageSize}},
		{"kept", PageRequest{Page: 4, PageSize: 25}, PageRequest{Page: 4, PageSize: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Normalize()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[item](nil, PageRequest{Page: 2, PageSize: 5}, 11)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.Equal(t, 3, resp.TotalPages)
	assert.Equal(t, 2, resp.Page)
}

func TestFind(t *testing.T) {
	db := setupItems(t, 7)

	t.Run("second page in order", func(t *testing.T) {
		resp, err := Find[item](db.Model(&item{}), PageRequest{Page: 2, PageSize: 3}, "name ASC")
		require.NoError(t, err)
		assert.EqualValues(t, 7, resp.TotalItems)
		assert.Equal(t, 3, resp.TotalPages)
		require.Len(t, resp.Data, 3)
		assert.Equal(t, "item-04", resp.Data[0].Name)
		assert.Equal(t, "item-06", resp.Data[2].Name)
	})

	t.Run("filters apply to count and page", func(t *testing.T) {
		resp, err := Find[item](db.Model(&item{}).Where("kind = ?", "odd"), PageRequest{}, "name DESC")
		require.NoError(t, err)
		assert.EqualValues(t, 4, resp.TotalItems)
		require.Len(t, resp.Data, 4)
		assert.Equal(t, "item-07", resp.Data[0].Name)
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		resp, err := Find[item](db.Model(&item{}), PageRequest{Page: 9, PageSize: 5}, "name ASC")
		require.NoError(t, err)
		assert.EqualValues(t, 7, resp.TotalItems)
		assert.NotNil(t, resp.Data)
		assert.Empty(t, resp.Data)
	})
}
