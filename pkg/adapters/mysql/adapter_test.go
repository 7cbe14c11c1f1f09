package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/twowaysql/pkg/adapter"
	"github.com/leapstack-labs/twowaysql/pkg/template"
)

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name   string
		config adapter.Config
		verify func(t *testing.T, mc *mysql.Config)
	}{
		{
			name:   "defaults",
			config: adapter.Config{Database: "app"},
			verify: func(t *testing.T, mc *mysql.Config) {
				assert.Equal(t, "tcp", mc.Net)
				assert.Equal(t, "localhost:3306", mc.Addr)
				assert.Equal(t, "app", mc.DBName)
				assert.True(t, mc.ParseTime)
			},
		},
		{
			name: "credentials and port",
			config: adapter.Config{
				Host:     "db.example.com",
				Port:     3307,
				Database: "sales",
				Username: "report",
				Password: "s3cret",
			},
			verify: func(t *testing.T, mc *mysql.Config) {
				assert.Equal(t, "db.example.com:3307", mc.Addr)
				assert.Equal(t, "report", mc.User)
				assert.Equal(t, "s3cret", mc.Passwd)
			},
		},
		{
			name: "timeout and options",
			config: adapter.Config{
				Database:         "app",
				StatementTimeout: 5 * time.Second,
				Options:          map[string]string{"sql_mode": "ANSI_QUOTES"},
			},
			verify: func(t *testing.T, mc *mysql.Config) {
				assert.Equal(t, 5*time.Second, mc.ReadTimeout)
				assert.Equal(t, 5*time.Second, mc.WriteTimeout)
				assert.Equal(t, "ANSI_QUOTES", mc.Params["sql_mode"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc, err := mysql.ParseDSN(buildMySQLDSN(tt.config))
			require.NoError(t, err)
			tt.verify(t, mc)
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	res := &template.Result{SQL: "SELECT ?", Args: []any{1}, DisplaySQL: "SELECT 1"}
	adp := New(nil)

	_, err := adp.Exec(context.Background(), res)
	assert.ErrorContains(t, err, "not established")

	_, err = adp.Query(context.Background(), res)
	assert.ErrorContains(t, err, "not established")

	assert.NoError(t, adp.Close())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("mysql"))

	factory, ok := adapter.Get("mysql")
	require.True(t, ok)
	adp := factory(nil)
	assert.Equal(t, template.PlaceholderQuestion, adp.Placeholder())
}
