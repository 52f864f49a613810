package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("TESSERACT_LANG", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("TESSERACT_PSM", "")
	t.Setenv("TESSERACT_OEM", "")
	t.Setenv("GRPC_ADDR", "")

	cfg := LoadConfig()
	assert.Equal(t, "spa+eng", cfg.OCR.TesseractLang)
	assert.Equal(t, 6, cfg.OCR.PSM)
	assert.Equal(t, 3, cfg.OCR.OEM)
	assert.Equal(t, int64(16<<20), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, ":9090", cfg.Server.GRPCAddr)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_INMEM", "true")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("TESSERACT_PSM", "4")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := LoadConfig()
	assert.True(t, cfg.Database.InMemory)
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, 4, cfg.OCR.PSM)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
}

func TestValidateRequiresSecretAndDatabase(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{HTTPAddr: ":8080", GRPCAddr: ":9090"},
		Storage: StorageConfig{MaxUploadBytes: 1},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	cfg.Database.InMemory = true
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Auth.JWTSecret = "s3cret"
	assert.NoError(t, cfg.Validate())
}
