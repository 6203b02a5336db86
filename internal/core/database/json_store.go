package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moskvinegor321/Project-analyzer/internal/core"
)

// GetJSON decodes the value at key into out. found is false when the key is missing or expired.
func GetJSON(ctx context.Context, kv core.KVStore, key string, out any) (bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, kv core.KVStore, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw, ttl)
}
