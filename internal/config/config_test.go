package config_test

import (
	"testing"
	"time"

	"shop_api/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_PORT", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := config.FromEnv()

	assert.Equal(t, "5000", cfg.AppPort)
	assert.Equal(t, 30*24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IS_PROD", "true")
	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "tienda")
	t.Setenv("ALLOWED_ORIGINS", " https://shop.example , ,http://localhost:3000")

	cfg := config.FromEnv()

	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, "shop:pw@tcp(db:3307)/tienda?parseTime=true", cfg.DSN())
	assert.Equal(t, []string{"https://shop.example", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestValidate_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := config.FromEnv()

	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingSecret)
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "")

	cfg := config.FromEnv()

	assert.Error(t, cfg.Validate())
}
