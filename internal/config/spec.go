package config

import "time"

// Config is the root configuration.
type Config struct {
	Store  StoreSection  `koanf:"store"`
	Server ServerSection `koanf:"server"`
	Mirror MirrorSection `koanf:"mirror"`
	Log    LogSection    `koanf:"log"`
}

// StoreSection configures the connection to the backing store.
type StoreSection struct {
	// URL is a redis:// or rediss:// URL. Ignored when Addrs is set.
	URL string `koanf:"url"`

	// Addrs lists seed nodes. More than one implies cluster mode.
	Addrs []string `koanf:"addrs"`

	Cluster bool `koanf:"cluster"`

	// Prefix is the namespace applied to every key.
	Prefix string `koanf:"prefix"`

	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// TLS settings. Any of them enables TLS on a redis:// or address
	// based connection; rediss:// URLs use TLS regardless.
	TLSCAFile     string `koanf:"tls_ca_file"`
	TLSCertFile   string `koanf:"tls_cert_file"`
	TLSKeyFile    string `koanf:"tls_key_file"`
	TLSServerName string `koanf:"tls_server_name"`
	TLSInsecure   bool   `koanf:"tls_insecure"`
}

// ServerSection configures nskv-server.
type ServerSection struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`

	// RateLimit is the number of commands per second allowed for one
	// client address. Zero disables limiting.
	RateLimit float64 `koanf:"rate_limit"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// MetricsAddr serves /metrics. Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// MirrorSection configures the local mirror log of document writes.
type MirrorSection struct {
	// Dir is the Badger directory. Empty disables mirroring.
	Dir string `koanf:"dir"`

	// EncryptionKey seals records at rest. 16, 24 or 32 bytes, hex encoded.
	EncryptionKey string `koanf:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClusterMode reports whether the store section selects cluster mode.
func (s StoreSection) ClusterMode() bool {
	return s.Cluster || len(s.Addrs) > 1
}
