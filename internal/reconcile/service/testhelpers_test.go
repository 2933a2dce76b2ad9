package service

import (
	"testing"

	"cargo-recon/internal/config"
)

func testDict(t *testing.T) *Dictionary {
	t.Helper()
	d, err := NewDictionary(config.DefaultDictionary())
	if err != nil {
		t.Fatalf("dictionary: %v", err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }
