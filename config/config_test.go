package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_PATH", "RUN", "PASSWORD", "REGION", "OFFICES", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_API_ENDPOINT",
	"DAYS_TO_SEARCH", "WAIT_TIME", "PORTAL_URL", "PORTAL_MODULE", "STATE_BACKEND", "STATE_FILE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "LOG_FILE", "LOG_LEVEL", "TIMEZONE", "ROLLOVER_YEAR",
}

// clearEnv убирает переменные на время теста; t.Setenv вернёт их обратно.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	chdirForTest(t, t.TempDir())
}

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Portal.RUN = "12345678-9"
	cfg.Portal.Password = "secret"
	cfg.Portal.Region = "13"
	cfg.Search.Offices = []string{"Providencia"}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30, cfg.Search.DaysToSearch)
	require.Equal(t, 60*time.Second, cfg.Search.WaitTime)
	require.Equal(t, BackendFile, cfg.State.Backend)
	require.Equal(t, "appointment_state.json", cfg.State.File)
	require.Equal(t, "appointment_checker.log", cfg.Log.File)
	require.Equal(t, "America/Santiago", cfg.Timezone)
	require.False(t, cfg.Search.RolloverYear)
	require.False(t, cfg.Telegram.Enabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "monitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
portal:
  run: "11111111-1"
  password: from-file
  region: "13"
search:
  offices: [Providencia, Ñuñoa]
  daysToSearch: 14
  waitTime: 5m
state:
  backend: redis
  redis:
    addr: localhost:6379
    db: 2
`), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PASSWORD", "from-env")
	t.Setenv("WAIT_TIME", "90")
	t.Setenv("TELEGRAM_API_ENDPOINT", "http://127.0.0.1:8081/bot%s/%s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "11111111-1", cfg.Portal.RUN)
	require.Equal(t, "from-env", cfg.Portal.Password)
	require.Equal(t, []string{"Providencia", "Ñuñoa"}, cfg.Search.Offices)
	require.Equal(t, 14, cfg.Search.DaysToSearch)
	require.Equal(t, 90*time.Second, cfg.Search.WaitTime)
	require.Equal(t, BackendRedis, cfg.State.Backend)
	require.Equal(t, 2, cfg.State.Redis.DB)
	require.Equal(t, "http://127.0.0.1:8081/bot%s/%s", cfg.Telegram.Endpoint)
	require.NoError(t, cfg.Validate())
}

func TestLoadDefaultConfigFileInWorkingDir(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("search:\n  daysToSearch: 7\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Search.DaysToSearch)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("RUN=22222222-2\nREGION=5\nOFFICES= Viña del Mar , ,Valparaíso\n"), 0o600))
	t.Setenv("REGION", "13")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "22222222-2", cfg.Portal.RUN)
	require.Equal(t, "13", cfg.Portal.Region)
	require.Equal(t, []string{"Viña del Mar", "Valparaíso"}, cfg.Search.Offices)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	for _, key := range []string{"DAYS_TO_SEARCH", "WAIT_TIME", "TELEGRAM_CHAT_ID", "REDIS_DB"} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "abc")
			_, err := Load()
			require.ErrorContains(t, err, key)
		})
	}
}

func TestLoadBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	require.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"no run", func(c *Config) { c.Portal.RUN = " " }, "RUN"},
		{"no password", func(c *Config) { c.Portal.Password = "" }, "PASSWORD"},
		{"no region", func(c *Config) { c.Portal.Region = "" }, "REGION"},
		{"no offices", func(c *Config) { c.Search.Offices = nil }, "OFFICES"},
		{"zero days", func(c *Config) { c.Search.DaysToSearch = 0 }, "daysToSearch"},
		{"zero wait", func(c *Config) { c.Search.WaitTime = 0 }, "waitTime"},
		{"token without chat", func(c *Config) { c.Telegram.Token = "t" }, "TELEGRAM_CHAT_ID"},
		{"unknown backend", func(c *Config) { c.State.Backend = "s3" }, "state.backend"},
		{"redis without addr", func(c *Config) { c.State.Backend = BackendRedis }, "REDIS_ADDR"},
		{"file without path", func(c *Config) { c.State.File = "" }, "state.file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.want)
		})
	}
}

// chdirForTest mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(oldwd); err != nil {
			panic("chdirForTest: restoring working directory: " + err.Error())
		}
	})
}
