package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyMirror(&cfg.Mirror); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyStore(cfg *StoreSection) error {
	if cfg.URL == "" && len(cfg.Addrs) == 0 {
		return errors.New("store.url or store.addrs is required")
	}
	for _, addr := range cfg.Addrs {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("store.addrs: %q: %w", addr, err)
		}
	}
	if cfg.DB < 0 {
		return errors.New("store.db must not be negative")
	}
	if cfg.DB != 0 && cfg.ClusterMode() {
		return errors.New("store.db is not supported in cluster mode")
	}
	if cfg.DialTimeout < 0 {
		return errors.New("store.dial_timeout must not be negative")
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errors.New("store.tls_cert_file and store.tls_key_file must be set together")
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("server.metrics_addr: %w", err)
		}
		if cfg.MetricsAddr == cfg.Addr {
			return errors.New("server.metrics_addr must differ from server.addr")
		}
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

func verifyMirror(cfg *MirrorSection) error {
	if cfg.EncryptionKey == "" {
		return nil
	}
	if cfg.Dir == "" {
		return errors.New("mirror.encryption_key requires mirror.dir")
	}
	if _, err := MirrorKey(cfg); err != nil {
		return err
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}

// MirrorKey decodes the mirror encryption key. It returns nil when no key
// is configured.
func MirrorKey(cfg *MirrorSection) ([]byte, error) {
	if cfg.EncryptionKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("mirror.encryption_key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	}
	return nil, fmt.Errorf("mirror.encryption_key: got %d bytes, want 16, 24 or 32", len(key))
}
