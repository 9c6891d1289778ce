// Package testing allows other packages to set up a real, temporary
// governance database for their tests.
package testing

import (
	"testing"

	"github.com/stratafi/governance/db/kv"
)

// SetupDB instantiates and returns a kv store backed by a temporary
// directory, closed and removed at the end of the test.
func SetupDB(t testing.TB) *kv.Store {
	s, err := kv.NewKVStore(t.TempDir())
	if err != nil {
		t.Fatalf("could not create database: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("could not close database: %v", err)
		}
	})
	return s
}
