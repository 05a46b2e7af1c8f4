// Package config defines the configuration shared by the nskv CLI and the
// development server.
//
// Values are loaded through internal/infra/confloader in the order
// file < environment (NSKV_*) < flags, then checked with Verify. Use
// Sanitize before logging a Config.
package config
