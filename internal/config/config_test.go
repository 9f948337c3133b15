package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`version: "1.0"`))
	require.NoError(t, err)

	assert.Equal(t, DefaultDomains, cfg.Focus.Domains)
	assert.Equal(t, time.Minute, cfg.Focus.TickInterval)
	assert.Equal(t, "/blocked", cfg.Focus.RedirectPath)
	assert.Equal(t, DefaultAdminPort, cfg.HTTP.AdminPort)
	assert.Equal(t, StorageBackendDiskv, cfg.Storage.Backend)
	assert.Equal(t, SignalProviderNone, cfg.Signal.Provider)
	assert.Equal(t, 10*time.Second, cfg.Signal.Timeout)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, RetryBackoffLinear, cfg.Storage.RetryBackoff)
}

func TestParse_NormalizesValues(t *testing.T) {
	cfg, err := Parse([]byte(`
version: "1.0"
focus:
  domains: ["WWW.Reddit.com", "reddit.com", " x.com ", ""]
  tick_interval: 30s
storage:
  backend: FILE
signal:
  provider: Simulation
logging:
  level: WARNING
  format: JSON
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"reddit.com", "x.com"}, cfg.Focus.Domains)
	assert.Equal(t, 30*time.Second, cfg.Focus.TickInterval)
	assert.Equal(t, StorageBackendDiskv, cfg.Storage.Backend)
	assert.Equal(t, SignalProviderSimulated, cfg.Signal.Provider)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatJSON, cfg.Logging.Format)
}

func TestParse_ExpandsEnvironment(t *testing.T) {
	t.Setenv("FOCUSD_TEST_PORT", "9911")
	cfg, err := Parse([]byte("version: \"1.0\"\nhttp:\n  admin_port: ${FOCUSD_TEST_PORT}\n"))
	require.NoError(t, err)
	assert.Equal(t, 9911, cfg.HTTP.AdminPort)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"wrong version":        `version: "2.0"`,
		"bad backend":          "version: \"1.0\"\nstorage:\n  backend: redis\n",
		"nats without url":     "version: \"1.0\"\nstorage:\n  backend: nats\n",
		"google without creds": "version: \"1.0\"\nsignal:\n  provider: google\n",
		"url as domain":        "version: \"1.0\"\nfocus:\n  domains: [\"https://x.com/home\"]\n",
		"same ports":           "version: \"1.0\"\nhttp:\n  admin_port: 9000\n  gateway_port: 9000\n",
		"relative redirect":    "version: \"1.0\"\nfocus:\n  redirect_path: blocked\n",
		"unknown timezone":     "version: \"1.0\"\nfocus:\n  timezone: Mars/Olympus\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestInitAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "focusd.yaml")
	t.Setenv("FOCUSD_GOOGLE_CREDENTIALS", "")

	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false), "existing file must not be overwritten without force")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Focus.Domains, 8)
	assert.Equal(t, 8788, cfg.HTTP.GatewayPort)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFocusConfig_Location(t *testing.T) {
	assert.Equal(t, time.Local, FocusConfig{Timezone: "Local"}.Location())
	assert.Equal(t, "UTC", FocusConfig{Timezone: "UTC"}.Location().String())
}

func TestLoadEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())

	require.Error(t, loadEnvFile())

	require.NoError(t, os.WriteFile(".env", []byte("FOCUSD_ENV_PROBE=from-dotenv\n"), 0o600))
	t.Setenv("FOCUSD_ENV_PROBE", "")
	require.NoError(t, os.Unsetenv("FOCUSD_ENV_PROBE"))
	require.NoError(t, loadEnvFile())
	assert.Equal(t, "from-dotenv", os.Getenv("FOCUSD_ENV_PROBE"))
}
