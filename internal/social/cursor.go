package social

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fieldhouse/fieldhouse/internal/db"
)

// Cursors are opaque keyset positions over (created_at, id). Keyset cursors
// stay stable when new rows insert ahead of the page, unlike offsets.

// EncodeCursor encodes a page boundary into an opaque cursor token
func EncodeCursor(createdAt time.Time, id string) string {
	raw := fmt.Sprintf("%d:%s", createdAt.UTC().UnixMicro(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor decodes a cursor token produced by EncodeCursor. An empty
// token means "from the top". Garbage tokens fail with ErrInvalidOperation.
func DecodeCursor(token string) (*db.Keyset, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidOperation)
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidOperation)
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed cursor", ErrInvalidOperation)
	}

	return &db.Keyset{
		CreatedAt: time.UnixMicro(micros).UTC(),
		ID:        parts[1],
	}, nil
}
