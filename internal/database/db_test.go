package database

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-backoffice/internal/config"
)

func TestDSN(t *testing.T) {
	s := dsn(config.Config{
		DBUser: "app", DBPass: "p@ss:word", DBHost: "db.internal", DBPort: "3306", DBName: "backoffice",
	})

	mc, err := mysql.ParseDSN(s)
	require.NoError(t, err)
	assert.Equal(t, "app", mc.User)
	assert.Equal(t, "p@ss:word", mc.Passwd)
	assert.Equal(t, "db.internal:3306", mc.Addr)
	assert.Equal(t, "backoffice", mc.DBName)
	assert.True(t, mc.ParseTime)
	assert.True(t, mc.ClientFoundRows)
	assert.Contains(t, s, "charset=utf8mb4")
}
