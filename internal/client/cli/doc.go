// Package cli provides the storefront command-line client.
//
// Each subcommand maps onto one server endpoint. Passwords are read without
// echo and the tokens returned by login and refresh are kept in a session
// file that later commands reuse. Without a subcommand the client starts an
// interactive prompt that accepts the same commands.
package cli
