package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvWithDefault(t *testing.T) {
	const key = "TEST_APP_PORT"

	// 环境变量未设置时，应该返回默认值
	_ = os.Unsetenv(key)
	if got := getEnv(key, "9000"); got != "9000" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "9000")
	}

	// 环境变量设置后，应优先返回环境变量
	t.Setenv(key, "8080")
	if got := getEnv(key, "9000"); got != "8080" {
		t.Fatalf("getEnv(%q) = %q, want %q", key, got, "8080")
	}
}

func TestTypedGettersFallBackOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	t.Setenv("TEST_BOOL", "maybe")
	t.Setenv("TEST_FLOAT", "")
	assert.Equal(t, 7, getEnvInt("TEST_INT", 7))
	assert.True(t, getEnvBool("TEST_BOOL", true))
	assert.Equal(t, 1.5, getEnvFloat("TEST_FLOAT", 1.5))

	t.Setenv("TEST_INT", " 42 ")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_FLOAT", "0.5")
	assert.Equal(t, 42, getEnvInt("TEST_INT", 7))
	assert.False(t, getEnvBool("TEST_BOOL", true))
	assert.Equal(t, 0.5, getEnvFloat("TEST_FLOAT", 1.5))
}

func TestLoadReadsAuthKeysAndCaps(t *testing.T) {
	t.Setenv("APP_PORT", "1234")
	t.Setenv("APP_BASIC_USER", "user")
	t.Setenv("APP_BASIC_PASS", "pass")
	t.Setenv("NEWS_API_KEY", "k1")
	t.Setenv("ENABLE_GNEWS", "false")
	t.Setenv("SOURCE_ITEM_CAP", "12")
	t.Setenv("BIAS_ITEM_CAP", "40")

	cfg := Load()
	assert.Equal(t, "1234", cfg.AppPort)
	assert.Equal(t, "user", cfg.BasicAuthUser)
	assert.Equal(t, "pass", cfg.BasicAuthPass)
	assert.Equal(t, "k1", cfg.NewsAPIKey)
	assert.False(t, cfg.EnableGNews)
	assert.True(t, cfg.EnableRSS)
	assert.Equal(t, 12, cfg.SourceItemCap)
	assert.Equal(t, 40, cfg.BiasItemCap)
	assert.Equal(t, 15, cfg.KeywordLimit)
}
