package config

import (
	"os"
	"path/filepath"
	"testing"

	internal "github.com/ZanzyTHEbar/virtual-photofs/vpfs"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	viper.Reset()

	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	tempDir, err := os.MkdirTemp("", "vpfs-config-test-*")
	require.NoError(suite.T(), err)
	suite.tempDir = tempDir

	err = os.Chdir(tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), internal.DefaultMemoryBudgetBytes, cfg.Engine.MemoryBudgetBytes)
	assert.Equal(suite.T(), internal.DefaultConfiguredRadius, cfg.Engine.ConfiguredRadius)
	assert.Equal(suite.T(), internal.DefaultMaxConcurrentDecodes, cfg.Engine.MaxConcurrentDecodes)
	assert.False(suite.T(), cfg.Engine.Circular)
	assert.Equal(suite.T(), internal.DefaultLRUMaxEntries, cfg.Engine.LRU.MaxEntries)
}

func (suite *ConfigTestSuite) TestLoadFromFile() {
	configContent := `
engine:
  memoryBudgetBytes: 1048576
  configuredRadius: 10
  maxConcurrentDecodes: 4
  circular: true
  lru:
    maxEntries: 8
    maxBytes: 262144
`
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configFile)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), int64(1048576), cfg.Engine.MemoryBudgetBytes)
	assert.Equal(suite.T(), 10, cfg.Engine.ConfiguredRadius)
	assert.Equal(suite.T(), 4, cfg.Engine.MaxConcurrentDecodes)
	assert.True(suite.T(), cfg.Engine.Circular)
	assert.Equal(suite.T(), 8, cfg.Engine.LRU.MaxEntries)
	assert.Equal(suite.T(), int64(262144), cfg.Engine.LRU.MaxBytes)
	// Unspecified keys fall back to defaults
	assert.Equal(suite.T(), internal.DefaultDecodeTimeoutSecs, cfg.Engine.DecodeTimeoutSeconds)
}

func (suite *ConfigTestSuite) TestInvalidConfigRejected() {
	configContent := `
engine:
  maxConcurrentDecodes: 200
`
	configFile := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configFile, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	_, err = LoadConfig(configFile)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "maxConcurrentDecodes")
}

func (suite *ConfigTestSuite) TestValidate() {
	cfg := Default()
	require.NoError(suite.T(), cfg.Validate())

	budgetless := Default()
	budgetless.MemoryBudgetBytes = 0
	assert.Error(suite.T(), budgetless.Validate())

	noRadius := Default()
	noRadius.ConfiguredRadius = 0
	assert.Error(suite.T(), noRadius.Validate())

	noWorkers := Default()
	noWorkers.MaxConcurrentDecodes = 0
	assert.Error(suite.T(), noWorkers.Validate())
}
