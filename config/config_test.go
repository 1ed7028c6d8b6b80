package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "7d")
	assert.Equal(t, 7*24*time.Hour, getEnvAsDuration("JWT_EXPIRES_IN", time.Hour))

	t.Setenv("JWT_EXPIRES_IN", "90m")
	assert.Equal(t, 90*time.Minute, getEnvAsDuration("JWT_EXPIRES_IN", time.Hour))

	t.Setenv("JWT_EXPIRES_IN", "3600")
	assert.Equal(t, time.Hour, getEnvAsDuration("JWT_EXPIRES_IN", time.Minute))

	t.Setenv("JWT_EXPIRES_IN", "garbage")
	assert.Equal(t, time.Minute, getEnvAsDuration("JWT_EXPIRES_IN", time.Minute))
}

func TestValidate(t *testing.T) {
	cfg := Config{
		JWTSecret:       "secret",
		DBDriver:        "memory",
		StorageDriver:   "local",
		PresenceBackend: "local",
	}
	assert.NoError(t, cfg.Validate())

	noSecret := cfg
	noSecret.JWTSecret = ""
	assert.Error(t, noSecret.Validate())

	mysql := cfg
	mysql.DBDriver = "mysql"
	assert.Error(t, mysql.Validate())
	mysql.DBHost, mysql.DBUser, mysql.DBName = "localhost", "root", "drafted"
	assert.NoError(t, mysql.Validate())

	s3 := cfg
	s3.StorageDriver = "s3"
	assert.Error(t, s3.Validate())

	badPresence := cfg
	badPresence.PresenceBackend = "kafka"
	assert.Error(t, badPresence.Validate())
}
