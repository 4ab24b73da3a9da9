package config

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logging "github.com/ipfs/go-log"
	"github.com/spf13/viper"
	"github.com/wcgcyx/rubidity/contract"
	"github.com/wcgcyx/rubidity/gas"
)

// Logger
var log = logging.Logger("config")

const (
	defaultConfigPath = ".rubidity"
)

type Config struct {
	// Global
	GlobalLoggingLevel string        `mapstructure:"LOGGING"`    // Log Level: FATAL, PANIC, ERROR, WARN, INFO, DEBUG.
	Path               string        `mapstructure:"DATA_DIR"`   // Main datastore path.
	DSTimeout          time.Duration `mapstructure:"DS_TIMEOUT"` // Datastore timeout.

	// Processor
	StartBlock              uint64        `mapstructure:"START_BLOCK"`                // First block whose transactions are executed.
	GasLimit                gas.Gas       `mapstructure:"GAS_LIMIT"`                  // Per transaction gas limit in milli units, 0 for unlimited.
	SupportedInitCodeHashes []common.Hash `mapstructure:"SUPPORTED_INIT_CODE_HASHES"` // Deployable init code hashes, empty for all.
	ArtifactCacheSize       int           `mapstructure:"ARTIFACT_CACHE_SIZE"`        // Number of cached artifacts.
	StateMergePolicy        string        `mapstructure:"STATE_MERGE_POLICY"`         // Inherited state merge policy: closest, base.
	ScriptTimeout           time.Duration `mapstructure:"SCRIPT_TIMEOUT"`             // Script function timeout.

	// Statestore
	StateStoreGCPeriod          time.Duration `mapstructure:"STATESTORE_GC_PERIOD"`           // Statestore GC period.
	StateStoreSnapshotsToRetain uint64        `mapstructure:"STATESTORE_SNAPSHOTS_TO_RETAIN"` // Blocks of snapshots to retain, 0 keeps all.
}

// Default configs
var DefaultConfig Config = Config{
	Path:                        ".rubidity",
	GlobalLoggingLevel:          "INFO",
	DSTimeout:                   5 * time.Second,
	StartBlock:                  0,
	GasLimit:                    0,
	ArtifactCacheSize:           128,
	StateMergePolicy:            "closest",
	ScriptTimeout:               5 * time.Second,
	StateStoreGCPeriod:          30 * time.Minute,
	StateStoreSnapshotsToRetain: 0,
}

// NewConfig creates a new configuration.
//
// @output - configuration, error.
func NewConfig(configFile string) (Config, error) {
	// Try to load config file from $HOME/.rubidity
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/" + defaultConfigPath)
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	conf := Config{}

	// Parse global config
	conf.GlobalLoggingLevel = v.GetString("LOGGING")
	if conf.GlobalLoggingLevel == "" {
		conf.GlobalLoggingLevel = DefaultConfig.GlobalLoggingLevel
	}
	logLevel, err := logging.LevelFromString(conf.GlobalLoggingLevel)
	if err != nil {
		return Config{}, err
	}
	logging.SetAllLoggers(logLevel)
	conf.Path = v.GetString("DATA_DIR")
	if conf.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		conf.Path = filepath.Join(home, DefaultConfig.Path)
		log.Infof("DATA_DIR not defined, use default: %v", conf.Path)
	}
	conf.DSTimeout = v.GetDuration("DS_TIMEOUT")
	if conf.DSTimeout <= 0 {
		conf.DSTimeout = DefaultConfig.DSTimeout
		log.Infof("Invalid DS_TIMEOUT found, use default: %v", conf.DSTimeout)
	}

	// Parse processor config
	conf.StartBlock = uint64(v.GetInt64("START_BLOCK"))
	conf.GasLimit = gas.Gas(v.GetInt64("GAS_LIMIT"))
	if conf.GasLimit == 0 {
		log.Infof("GAS_LIMIT not set, transactions are unlimited")
	}
	for _, s := range v.GetStringSlice("SUPPORTED_INIT_CODE_HASHES") {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if len(part) != 66 || !strings.HasPrefix(part, "0x") {
				return Config{}, errors.New("invalid init code hash " + part)
			}
			conf.SupportedInitCodeHashes = append(conf.SupportedInitCodeHashes, common.HexToHash(part))
		}
	}
	conf.ArtifactCacheSize = v.GetInt("ARTIFACT_CACHE_SIZE")
	if conf.ArtifactCacheSize <= 0 {
		conf.ArtifactCacheSize = DefaultConfig.ArtifactCacheSize
		log.Infof("ARTIFACT_CACHE_SIZE not set, use default: %v", conf.ArtifactCacheSize)
	}
	conf.StateMergePolicy = v.GetString("STATE_MERGE_POLICY")
	if conf.StateMergePolicy == "" {
		conf.StateMergePolicy = DefaultConfig.StateMergePolicy
	}
	if _, err = contract.ParseMergePolicy(conf.StateMergePolicy); err != nil {
		return Config{}, err
	}
	conf.ScriptTimeout = v.GetDuration("SCRIPT_TIMEOUT")
	if conf.ScriptTimeout <= 0 {
		conf.ScriptTimeout = DefaultConfig.ScriptTimeout
		log.Infof("Invalid SCRIPT_TIMEOUT found, use default: %v", conf.ScriptTimeout)
	}

	// Parse statestore config
	conf.StateStoreGCPeriod = v.GetDuration("STATESTORE_GC_PERIOD")
	if conf.StateStoreGCPeriod < 10*time.Minute {
		conf.StateStoreGCPeriod = DefaultConfig.StateStoreGCPeriod
		log.Infof("STATESTORE_GC_PERIOD is smaller than min 10m, use default %v", conf.StateStoreGCPeriod)
	}
	conf.StateStoreSnapshotsToRetain = uint64(v.GetInt64("STATESTORE_SNAPSHOTS_TO_RETAIN"))

	return conf, nil
}
