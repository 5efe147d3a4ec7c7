package config

import (
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type widget struct {
	ID   uint
	Name string `gorm:"size:20;uniqueIndex"`
}

func TestOpenDatabaseSQLite(t *testing.T) {
	conn, err := OpenDatabase(AppConfig{DBDriver: "sqlite", DatabaseURI: ":memory:"}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	require.NoError(t, Migrate(conn, &widget{}))

	require.NoError(t, conn.Create(&widget{Name: "first"}).Error)
	err = conn.Create(&widget{Name: "first"}).Error
	assert.Error(t, err, "unique index should reject a duplicate name")

	var n int64
	require.NoError(t, conn.Model(&widget{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestOpenDatabaseUnsupportedDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"}, log.New(io.Discard, "", 0))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestDialectorDSN(t *testing.T) {
	d, err := dialectorFor(AppConfig{DBDriver: "sqlite", DBName: "blog"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	d, err = dialectorFor(AppConfig{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = dialectorFor(AppConfig{DBDriver: "", DBHost: "db", DBPort: "3306"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
}

func TestToGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Error, toGormLogLevel("error"))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
	assert.Equal(t, logger.Warn, toGormLogLevel("info"))
}
