// Package config loads runtime configuration for the storefront CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables STOREFRONT_SERVER_URL and STOREFRONT_SESSION_FILE.
//  4. Global flags placed before the subcommand.
//
// Supported flags
//
//	-s string   base URL of the storefront server
//	-f string   path of the session file holding the saved tokens
//
// # JSON schema
//
//	{
//	  "server_url": "http://localhost:8080",
//	  "session_file": "/home/me/.storefront/session.json"
//	}
package config
