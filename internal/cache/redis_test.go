package cache

import (
	"testing"
)

func TestHashKey(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{
			name:  "single part",
			parts: []string{"test"},
		},
		{
			name:  "multiple parts",
			parts: []string{"test", "key", "with", "many", "parts"},
		},
		{
			name:  "empty parts",
			parts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed1 := HashKey(tt.parts...)
			hashed2 := HashKey(tt.parts...)

			// Hash should be consistent
			if hashed1 != hashed2 {
				t.Errorf("HashKey() should be consistent, got %s and %s", hashed1, hashed2)
			}

			// Hash should be 32 characters (MD5 hex)
			if len(hashed1) != 32 {
				t.Errorf("HashKey() should return 32 character hex string, got length %d", len(hashed1))
			}
		})
	}
}

func TestCounterKey(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		accountID int64
		expected  string
	}{
		{
			name:      "unread counter",
			kind:      "unread",
			accountID: 42,
			expected:  "unread:42",
		},
		{
			name:      "follower counter",
			kind:      "followers",
			accountID: 7,
			expected:  "followers:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CounterKey(tt.kind, tt.accountID)
			if result != tt.expected {
				t.Errorf("CounterKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCache_NamespaceKey(t *testing.T) {
	cache := &Cache{}

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{
			name:     "simple key",
			key:      "test",
			expected: "fieldhouse:test",
		},
		{
			name:     "key with colon",
			key:      "unread:42",
			expected: "fieldhouse:unread:42",
		},
		{
			name:     "empty key",
			key:      "",
			expected: "fieldhouse:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cache.namespaceKey(tt.key)
			if result != tt.expected {
				t.Errorf("namespaceKey() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCache_DisabledIsSafe(t *testing.T) {
	var cache *Cache

	if _, ok := cache.GetInt64("unread:1"); ok {
		t.Error("GetInt64() on nil cache should miss")
	}
	if err := cache.SetInt64("unread:1", 5, 0); err != ErrCacheDisabled {
		t.Errorf("SetInt64() on nil cache = %v, want ErrCacheDisabled", err)
	}
	if err := cache.Delete("unread:1"); err != ErrCacheDisabled {
		t.Errorf("Delete() on nil cache = %v, want ErrCacheDisabled", err)
	}
	if err := cache.Close(); err != nil {
		t.Errorf("Close() on nil cache = %v, want nil", err)
	}
}
