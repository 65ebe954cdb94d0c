package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetJSON lee key y la decodifica en v. Un valor corrupto se trata como miss.
func GetJSON(ctx context.Context, c Client, key string, v any) (bool, error) {
	s, err := c.Get(ctx, key)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		_ = c.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

// SetJSON serializa v y la guarda con ttl.
func SetJSON(ctx context.Context, c Client, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, string(b), ttl)
}
