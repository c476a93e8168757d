package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults 未配置的字段落到默认值
func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  token: \"t-123\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "t-123", cfg.API.Token)
	assert.Equal(t, "http://127.0.0.1:8089/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 0, cfg.API.RetryCount, "默认不在客户端层重试")
	assert.Equal(t, 10, cfg.Console.PageSize)
	assert.Equal(t, 8089, cfg.Simulator.Port)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.CacheEnabled(), "host为空时缓存应关闭")
	assert.Equal(t, ":8089", cfg.SimulatorAddr())
}

// TestLoadOverrides 配置文件覆盖默认值
func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: "http://iot.example.com/api/v1"
  timeout: 5s
cache:
  host: "127.0.0.1"
simulator:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://iot.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, ":9000", cfg.SimulatorAddr())
	assert.Equal(t, cfg, Get(), "加载后应更新全局配置")
}

// TestLoadMissingFile 配置文件不存在时报错
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
