// Package migrations contains the schema migrations for the Tradeyard API.
// Each migration file registers itself from init() via migration.Register,
// so the package only needs to be blank-imported by the binaries (cmd/server
// and cmd/tradeyard) for every migration to be known at startup.
package migrations
