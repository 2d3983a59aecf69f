package logger

import (
	"log/slog"
	"strconv"
	"strings"
)

// Redacted replaces the value of attributes whose key looks like a secret.
const Redacted = "***REDACTED***"

// Attribute keys holding cached data. Only their size is logged.
var payloadAttrs = map[string]bool{"value": true, "payload": true}

// Key fragments marking secrets. Matching is case-insensitive.
var secretFragments = []string{"password", "secret", "token", "credential", "auth", "bearer"}

// redact is installed as the handler's ReplaceAttr. The built-in handlers
// call it for each leaf attribute, including those inside groups.
func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)

	if payloadAttrs[key] {
		switch a.Value.Kind() {
		case slog.KindString:
			return slog.String(a.Key, sizeOf(len(a.Value.String())))
		case slog.KindAny:
			if b, ok := a.Value.Any().([]byte); ok {
				return slog.String(a.Key, sizeOf(len(b)))
			}
			return slog.String(a.Key, Redacted)
		}
		return a
	}

	if a.Value.Kind() == slog.KindString && a.Value.String() != "" && isSecret(key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

func isSecret(lowerKey string) bool {
	for _, f := range secretFragments {
		if strings.Contains(lowerKey, f) {
			return true
		}
	}
	return false
}

func sizeOf(n int) string {
	return "[" + strconv.Itoa(n) + " bytes]"
}
