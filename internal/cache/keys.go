package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const (
	GlobalKeyPrefix = "jementraine"

	CatalogService    = "catalog"
	ExercisesObject   = "exercises"
	catalogHashLength = 12
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// CatalogKey is the key of the cached record list loaded from root. Two
// spellings of the same directory share a key.
func CatalogKey(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	sum := sha1.Sum([]byte(filepath.Clean(root)))
	return GenerateCacheKey(CatalogService, ExercisesObject, hex.EncodeToString(sum[:])[:catalogHashLength])
}

// CatalogPrefix matches every catalog entry, whatever its root.
func CatalogPrefix() string {
	return strings.Join([]string{GlobalKeyPrefix, CatalogService, ExercisesObject}, ":") + ":"
}
