package db

import (
	"testing"

	"github.com/re-earth/re-earth-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "u", DBPassword: "p", DBName: "reearth", DBPort: "3306"}

	tests := []struct {
		name     string
		host     string
		instance string
		want     string
	}{
		{"plain host", "db.local", "", "u:p@tcp(db.local:3306)/reearth?charset=utf8mb4&parseTime=True&loc=Local"},
		{"tcp passthrough", "tcp(10.0.0.1:3307)", "", "u:p@tcp(10.0.0.1:3307)/reearth?charset=utf8mb4&parseTime=True&loc=Local"},
		{"unix passthrough", "unix(/tmp/mysql.sock)", "", "u:p@unix(/tmp/mysql.sock)/reearth?charset=utf8mb4&parseTime=True&loc=Local"},
		{"socket path", "/var/run/mysqld.sock", "", "u:p@unix(/var/run/mysqld.sock)/reearth?charset=utf8mb4&parseTime=True&loc=Local"},
		{"cloud sql", "ignored", "proj:region:inst", "u:p@unix(/cloudsql/proj:region:inst)/reearth?charset=utf8mb4&parseTime=True&loc=Local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tt.host
			cfg.InstanceConnectionName = tt.instance
			assert.Equal(t, tt.want, BuildDSN(&cfg))
		})
	}
}
