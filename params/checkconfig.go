package params

import (
	"errors"
	"fmt"

	"github.com/chainstamp/ChainStamp/common"
)

// CheckConfig check config and fill defaults
func CheckConfig() (err error) {
	config := GetConfig()
	if config.Identifier == "" {
		return errors.New("must config non empty 'Identifier'")
	}
	if config.Ledger == nil {
		return errors.New("must config 'Ledger'")
	}
	err = config.Ledger.CheckConfig()
	if err != nil {
		return err
	}
	if config.Mirror != nil {
		err = config.Mirror.CheckConfig()
		if err != nil {
			return err
		}
	}
	if config.Server != nil {
		err = config.Server.CheckConfig()
		if err != nil {
			return err
		}
	}
	if config.Explorer != nil {
		err = config.Explorer.CheckConfig()
		if err != nil {
			return err
		}
	}
	if config.Watch != nil {
		err = config.Watch.CheckConfig()
		if err != nil {
			return err
		}
	}
	return nil
}

// CheckConfig check ledger config
func (c *LedgerConfig) CheckConfig() error {
	if c.ChainID == "" {
		return errors.New("ledger must config 'ChainID'")
	}
	chainID, err := common.GetBigIntFromStr(c.ChainID)
	if err != nil {
		return fmt.Errorf("ledger 'ChainID' is invalid: %w", err)
	}
	if chainID.Sign() <= 0 {
		return errors.New("ledger 'ChainID' must be positive")
	}
	if len(c.APIAddress) == 0 {
		return errors.New("ledger must config 'APIAddress'")
	}
	for _, apiAddress := range c.APIAddress {
		if apiAddress == "" {
			return errors.New("ledger 'APIAddress' has empty url")
		}
	}
	if c.DefaultGasLimit == 0 {
		c.DefaultGasLimit = defaultGasLimit
	}
	if c.DefaultGasPrice == 0 {
		c.DefaultGasPrice = defaultGasPrice
	}
	return nil
}

// CheckConfig check mirror config
func (c *MirrorConfig) CheckConfig() error {
	switch c.Backend {
	case "":
	case "leveldb":
		if c.Path == "" {
			return errors.New("leveldb mirror must config 'Path'")
		}
	case "mongodb":
		if c.MongoDB == nil {
			return errors.New("mongodb mirror must config 'Mirror.MongoDB'")
		}
		if c.MongoDB.DBURL == "" {
			return errors.New("mongodb mirror must config 'DBURL'")
		}
		if c.MongoDB.DBName == "" {
			return errors.New("mongodb mirror must config 'DBName'")
		}
	default:
		return fmt.Errorf("unknown mirror backend %q", c.Backend)
	}
	return nil
}

// CheckConfig check server config
func (c *ServerConfig) CheckConfig() error {
	if c.Port == 0 {
		c.Port = defaultAPIPort
	}
	if c.MaxRequestsLimit <= 0 {
		c.MaxRequestsLimit = defaultMaxRequests
	}
	return nil
}

// CheckConfig check explorer config
func (c *ExplorerConfig) CheckConfig() error {
	if len(c.APIAddress) == 0 {
		return errors.New("explorer must config 'APIAddress'")
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	return nil
}

// CheckConfig check watch config
func (c *WatchConfig) CheckConfig() error {
	if c.Dir == "" {
		return errors.New("watch must config 'Dir'")
	}
	if c.TypeTag == "" {
		c.TypeTag = "file"
	}
	if c.Interval == 0 {
		c.Interval = defaultWatchInterval
	}
	return nil
}
