package utils

import "strings"

const cacheListSep = "\n"

// JoinCached/SplitCached — плоское хранение списка строк в redis.
// Разделитель — перевод строки: в классах жилья его не бывает.
func JoinCached(items []string) string {
	return strings.Join(items, cacheListSep)
}

func SplitCached(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, cacheListSep)
}
