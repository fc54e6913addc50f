package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letsencrypt/pkider/ca"
	"github.com/letsencrypt/pkider/sign"
)

func TestReadConfigFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file     string
		expected ca.Config
		listen   string
		logLevel string
	}{
		{
			file: "pkider-config.json",
			expected: ca.Config{
				KeyType:      ca.KeyTypeECDSA,
				Digest:       sign.SHA256,
				LeafValidity: 2160 * time.Hour,
				CAValidity:   262800 * time.Hour,
				MaxDepth:     32,
				MaxSize:      65536,
			},
			listen:   "0.0.0.0:14000",
			logLevel: "info",
		},
		{
			file: "pkider-config.yaml",
			expected: ca.Config{
				KeyType:      ca.KeyTypeRSA,
				Digest:       sign.SHA384,
				LeafValidity: 720 * time.Hour,
				CAValidity:   87600 * time.Hour,
				MaxDepth:     16,
				MaxSize:      32768,
			},
			listen:   "0.0.0.0:14000",
			logLevel: "debug",
		},
	}

	for _, tc := range tests {
		t.Run(tc.file, func(t *testing.T) {
			var c Config
			require.NoError(t, ReadConfigFile(filepath.Join("..", "test", "config", tc.file), &c))
			assert.Equal(t, tc.expected, c.CAConfig())
			assert.Equal(t, tc.listen, c.Pkider.ListenAddress)
			assert.Equal(t, tc.logLevel, c.Pkider.LogLevel)
		})
	}
}

func TestReadConfigFileErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var c Config
	assert.Error(t, ReadConfigFile(filepath.Join(dir, "missing.json"), &c))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"pkider": {"leafValidity": "forever"}}`), 0o600))
	assert.Error(t, ReadConfigFile(bad, &c))

	badYAML := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badYAML, []byte("pkider:\n  caValidity: [1, 2]\n"), 0o600))
	assert.Error(t, ReadConfigFile(badYAML, &c))
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("")
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
