package config

import "time"

// Default configuration values.
const (
	DefaultStoreURL    = "redis://127.0.0.1:6379/0"
	DefaultPrefix      = ""
	DefaultDialTimeout = 5 * time.Second

	DefaultServerAddr   = "127.0.0.1:6379"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 5 * time.Minute
	DefaultMetricsAddr  = "127.0.0.1:9121"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreSection{
			URL:         DefaultStoreURL,
			Prefix:      DefaultPrefix,
			DialTimeout: DefaultDialTimeout,
		},
		Server: ServerSection{
			Addr:         DefaultServerAddr,
			ReadTimeout:  DefaultReadTimeout,
			WriteTimeout: DefaultWriteTimeout,
			IdleTimeout:  DefaultIdleTimeout,
			MetricsAddr:  DefaultMetricsAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
