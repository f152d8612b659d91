package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Debug    DebugConfig    `yaml:"debug"`
	Storage  StorageConfig  `yaml:"storage"`
	Rpc      RpcConfig      `yaml:"rpc"`
	Chain    ChainConfig    `yaml:"chain"`
	Indexing IndexingConfig `yaml:"indexing"`
	Network  string         `yaml:"network" envconfig:"NETWORK"`
}

type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOGGING_LEVEL"`
}

type DebugConfig struct {
	ListenAddress string `yaml:"address" envconfig:"DEBUG_ADDRESS"`
	ListenPort    uint   `yaml:"port" envconfig:"DEBUG_PORT"`
}

type StorageConfig struct {
	Directory string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

type RpcConfig struct {
	ListenAddress string `yaml:"address" envconfig:"RPC_ADDRESS"`
	ListenPort    uint   `yaml:"port" envconfig:"RPC_PORT"`
}

// IndexingConfig toggles the optional write-through indexes
type IndexingConfig struct {
	AccountIndex     bool `yaml:"accountIndex" envconfig:"ACCOUNT_INDEX"`
	VaultIndex       bool `yaml:"vaultIndex" envconfig:"VAULT_INDEX"`
	NegativeInterest bool `yaml:"negativeInterest" envconfig:"NEGATIVE_INTEREST"`
}

// ForkHeights is the monotonic feature activation schedule
type ForkHeights struct {
	Dakota          uint32 `yaml:"dakota"`
	Eunos           uint32 `yaml:"eunos"`
	FortCanning     uint32 `yaml:"fortCanning"`
	FortCanningHill uint32 `yaml:"fortCanningHill"`
	GrandCentral    uint32 `yaml:"grandCentral"`
}

// ChainConfig holds the consensus chain parameters consumed by the core
type ChainConfig struct {
	BlocksPerDay                  uint32      `yaml:"blocksPerDay"`
	BlocksPerYear                 uint32      `yaml:"blocksPerYear"`
	BlocksPerPriceInterval        uint32      `yaml:"blocksPerPriceInterval"`
	BlocksCollateralAuction       uint32      `yaml:"blocksCollateralAuction"`
	BlocksCollateralizationRatio  uint32      `yaml:"blocksCollateralizationRatioCalculation"`
	OracleFreshnessSeconds        int64       `yaml:"oracleFreshnessSeconds"`
	MinOracleFeeders              int         `yaml:"minOracleFeeders"`
	MaxPriceDeviationPct          int64       `yaml:"maxPriceDeviationPct"`
	BlockReward                   int64       `yaml:"blockReward"`
	IncentiveFundingPct           int64       `yaml:"incentiveFundingPct"`
	LoanFundingPct                int64       `yaml:"loanFundingPct"`
	FoundationMembers             []string    `yaml:"foundationMembers"`
	BurnAddress                   string      `yaml:"burnAddress"`
	Forks                         ForkHeights `yaml:"forks"`
}

// Singleton config instance with default values
var globalConfig = &Config{
	Network: "mainnet",
	Logging: LoggingConfig{
		Level: "info",
	},
	Debug: DebugConfig{
		ListenAddress: "localhost",
		ListenPort:    0,
	},
	Storage: StorageConfig{
		Directory: "./.naiad",
	},
	Rpc: RpcConfig{
		ListenAddress: "localhost",
		ListenPort:    3000,
	},
	Chain: ChainConfig{
		BlocksPerDay:                 2880,
		BlocksPerYear:                1051200,
		BlocksPerPriceInterval:       120,
		BlocksCollateralAuction:      720,
		BlocksCollateralizationRatio: 1,
		OracleFreshnessSeconds:       3600,
		MinOracleFeeders:             2,
		MaxPriceDeviationPct:         30,
		BlockReward:                  405_04000000,
		IncentiveFundingPct:          25450000,
		LoanFundingPct:               24680000,
	},
}

func Load(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %s", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %s", err)
		}
	}
	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %s", err)
	}
	if globalConfig.Chain.BlocksPerPriceInterval == 0 {
		return nil, fmt.Errorf("blocksPerPriceInterval must be non-zero")
	}
	if globalConfig.Chain.BlocksPerYear == 0 {
		return nil, fmt.Errorf("blocksPerYear must be non-zero")
	}
	return globalConfig, nil
}

// Return global config instance
func GetConfig() *Config {
	return globalConfig
}
