// Package confloader loads configuration with koanf and watches the
// configuration file for changes.
//
// Sources, from lowest to highest priority:
//
//  1. Defaults already present in the target struct
//  2. YAML configuration file
//  3. Environment variables (NSKV_SECTION_KEY)
//  4. Maps, usually built from command-line flags
//
// Environment names map to keys by lowercasing and turning the first
// underscore after the prefix into a dot, so NSKV_STORE_DIAL_TIMEOUT sets
// store.dial_timeout.
package confloader
