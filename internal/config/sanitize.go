package config

import (
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with secrets masked.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Store.Addrs = append([]string(nil), cfg.Store.Addrs...)

	if sanitized.Store.Password != "" {
		sanitized.Store.Password = maskSecret(sanitized.Store.Password)
	}
	sanitized.Store.URL = maskURL(sanitized.Store.URL)
	if sanitized.Server.Password != "" {
		sanitized.Server.Password = maskSecret(sanitized.Server.Password)
	}
	if sanitized.Mirror.EncryptionKey != "" {
		sanitized.Mirror.EncryptionKey = maskSecret(sanitized.Mirror.EncryptionKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

// maskURL replaces the password in a store URL. The placeholder avoids
// characters that url.URL would percent-encode.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "redacted")
	return u.String()
}
