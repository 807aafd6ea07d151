package mover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ExpiringStore is a persisted key value store where every entry may expire.
// Get reports false for missing and expired entries alike.
type ExpiringStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// PersistKey builds an account bound key
func PersistKey(address common.Address, namespace, key string) string {
	return fmt.Sprintf("%s/%s/%s", strings.ToLower(address.Hex()), namespace, key)
}
