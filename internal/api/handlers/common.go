package handlers

import (
	"context"
	"fmt"

	"github.com/fieldhouse/fieldhouse/internal/db"
	"github.com/fieldhouse/fieldhouse/internal/models"
	"github.com/fieldhouse/fieldhouse/internal/social"
)

// resolveHandle turns an account handle into its account row. An unknown
// handle is the caller's mistake, not a server fault.
func resolveHandle(ctx context.Context, repo *db.Repository, handle string) (*models.Account, error) {
	if handle == "" {
		return nil, fmt.Errorf("%w: missing account handle", social.ErrInvalidOperation)
	}

	account, err := db.NewAccountRepository(repo).GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: unknown account %q", social.ErrInvalidOperation, handle)
	}
	return account, nil
}

// paramString extracts a string parameter from a params map
func paramString(p map[string]interface{}, key string) string {
	val, _ := p[key].(string)
	return val
}

// paramInt extracts an integer parameter from a params map
func paramInt(p map[string]interface{}, key string, defaultValue int) int {
	if val, ok := p[key].(float64); ok {
		return int(val)
	}
	return defaultValue
}

// paramInt64 extracts a 64-bit integer parameter from a params map
func paramInt64(p map[string]interface{}, key string) (int64, bool) {
	if val, ok := p[key].(float64); ok {
		return int64(val), true
	}
	return 0, false
}

// paramBool extracts a boolean parameter from a params map
func paramBool(p map[string]interface{}, key string) bool {
	val, _ := p[key].(bool)
	return val
}
