// Package db defines the ability to create a new database for the governance
// engine.
package db

import (
	"github.com/stratafi/governance/db/iface"
	"github.com/stratafi/governance/db/kv"
)

// Database defines the necessary methods for the governance engine's
// persistence layer.
type Database = iface.Database

// NewDB initializes a new DB.
func NewDB(dirPath string) (Database, error) {
	return kv.NewKVStore(dirPath)
}
