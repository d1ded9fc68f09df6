// Package params holds the toml configuration of the recording service.
package params

import (
	"encoding/json"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/log"
)

const (
	defaultAPIPort       = 13556
	defaultGasLimit      = 100000
	defaultGasPrice      = 1000000000 // 1 gwei
	defaultKeyEnv        = "CHAINSTAMP_PRIVATE_KEY"
	defaultPageSize      = 25
	defaultWatchInterval = 10 // seconds
	defaultMaxRequests   = 10 // per second
)

var (
	stampConfig       *StampConfig
	loadConfigStarter sync.Once
)

// StampConfig config items (decode from toml file)
type StampConfig struct {
	Identifier string
	Ledger     *LedgerConfig
	Identity   *IdentityConfig `toml:",omitempty" json:",omitempty"`
	Mirror     *MirrorConfig   `toml:",omitempty" json:",omitempty"`
	Server     *ServerConfig   `toml:",omitempty" json:",omitempty"`
	Explorer   *ExplorerConfig `toml:",omitempty" json:",omitempty"`
	Watch      *WatchConfig    `toml:",omitempty" json:",omitempty"`
}

// LedgerConfig gateway endpoints and fee terms of the target chain
type LedgerConfig struct {
	ChainID             string
	APIAddress          []string
	Confirmations       uint64 `toml:",omitempty" json:",omitempty"`
	DefaultGasLimit     uint64 `toml:",omitempty" json:",omitempty"`
	DefaultGasPrice     uint64 `toml:",omitempty" json:",omitempty"`
	GasLimitPlusPercent uint64 `toml:",omitempty" json:",omitempty"`
}

// IdentityConfig names the environment variable holding the signing key.
// The key itself never appears in configuration.
type IdentityConfig struct {
	KeyEnv string
}

// MirrorConfig local record store selection
type MirrorConfig struct {
	Backend string         // "leveldb", "mongodb" or empty for disabled
	Path    string         `toml:",omitempty" json:",omitempty"`
	MongoDB *MongoDBConfig `toml:",omitempty" json:",omitempty"`
}

// MongoDBConfig mongodb backend config
type MongoDBConfig struct {
	DBURL    string
	DBName   string
	UserName string `json:"-"`
	Password string `json:"-"`
}

// ServerConfig api service config
type ServerConfig struct {
	Port             int
	AllowedOrigins   []string
	MaxRequestsLimit int `toml:",omitempty" json:",omitempty"`
}

// ExplorerConfig optional etherscan style scan API for account listings
type ExplorerConfig struct {
	APIAddress []string
	PageSize   int `toml:",omitempty" json:",omitempty"`
}

// WatchConfig drop-directory auto recording
type WatchConfig struct {
	Dir      string
	TypeTag  string `toml:",omitempty" json:",omitempty"`
	HashOnly bool   `toml:",omitempty" json:",omitempty"`
	Interval uint64 `toml:",omitempty" json:",omitempty"`
}

// GetConfig get stamp config
func GetConfig() *StampConfig {
	return stampConfig
}

// SetConfig set stamp config
func SetConfig(config *StampConfig) {
	stampConfig = config
}

// GetIdentifier get network/application identifier
func GetIdentifier() string {
	return GetConfig().Identifier
}

// GetLedgerConfig get ledger config
func GetLedgerConfig() *LedgerConfig {
	return GetConfig().Ledger
}

// GetIdentityKeyEnv get the name of the env var holding the signing key
func GetIdentityKeyEnv() string {
	config := GetConfig()
	if config == nil || config.Identity == nil || config.Identity.KeyEnv == "" {
		return defaultKeyEnv
	}
	return config.Identity.KeyEnv
}

// GetMirrorConfig get mirror config (nil when mirroring is disabled)
func GetMirrorConfig() *MirrorConfig {
	return GetConfig().Mirror
}

// GetServerConfig get server config
func GetServerConfig() *ServerConfig {
	return GetConfig().Server
}

// GetExplorerConfig get explorer config
func GetExplorerConfig() *ExplorerConfig {
	return GetConfig().Explorer
}

// GetWatchConfig get watch config
func GetWatchConfig() *WatchConfig {
	return GetConfig().Watch
}

// HasExplorer reports whether a scan API endpoint is configured
func HasExplorer() bool {
	explorer := GetConfig().Explorer
	return explorer != nil && len(explorer.APIAddress) != 0
}

// GetAPIPort get api service port
func GetAPIPort() int {
	apiPort := GetServerConfig().Port
	if apiPort == 0 {
		apiPort = defaultAPIPort
	}
	return apiPort
}

// LoadConfig load config
func LoadConfig(configFile string) *StampConfig {
	loadConfigStarter.Do(func() {
		if configFile == "" {
			log.Fatalf("LoadConfig error: no config file specified")
		}
		log.Println("Config file is", configFile)
		if !common.FileExist(configFile) {
			log.Fatalf("LoadConfig error: config file %v not exist", configFile)
		}
		config := &StampConfig{}
		if _, err := toml.DecodeFile(configFile, &config); err != nil {
			log.Fatalf("LoadConfig error (toml DecodeFile): %v", err)
		}

		SetConfig(config)
		var bs []byte
		if log.JSONFormat {
			bs, _ = json.Marshal(config)
		} else {
			bs, _ = json.MarshalIndent(config, "", "  ")
		}
		log.Println("LoadConfig finished.", string(bs))
		if err := CheckConfig(); err != nil {
			log.Fatalf("Check config failed. %v", err)
		}
		log.Info("Check config success", "configFile", configFile)
	})
	return stampConfig
}
