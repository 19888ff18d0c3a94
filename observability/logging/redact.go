package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// RedactedValue replaces secret material in log output.
const RedactedValue = "[REDACTED]"

// publicKeys are the rewards log keys whose values are safe to print. Anything
// else passed through MaskField is treated as a secret.
var publicKeys = map[string]struct{}{
	"service":         {},
	"env":             {},
	"error":           {},
	"method":          {},
	"code":            {},
	"action":          {},
	"version":         {},
	"engine_version":  {},
	"frozen_versions": {},
	"kind":            {},
	"market":          {},
	"side":            {},
	"account":         {},
	"amount":          {},
	"storage":         {},
	"receipts":        {},
	"programs":        {},
	"otlp_endpoint":   {},
}

func isPublic(key string) bool {
	_, ok := publicKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// MaskField returns value under key unless key may carry a secret (jwt
// secrets, api tokens, OTLP headers). Blank values pass through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || isPublic(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskDSN keeps the parts of a receipts DSN that help an operator (driver,
// host, database) and blanks the password. Both URL DSNs
// (postgres://user:pw@host/db) and key=value DSNs (host=db password=pw) are
// understood; a sqlite file path carries no credentials and is kept.
func MaskDSN(key, dsn string) slog.Attr {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return slog.String(key, dsn)
	}
	if strings.Contains(dsn, "://") {
		parsed, err := url.Parse(dsn)
		if err != nil {
			return slog.String(key, RedactedValue)
		}
		if query := parsed.Query(); query.Has("password") {
			query.Set("password", "xxxxx")
			parsed.RawQuery = query.Encode()
		}
		return slog.String(key, strings.ReplaceAll(parsed.Redacted(), "xxxxx", RedactedValue))
	}
	fields := strings.Fields(dsn)
	if len(fields) == 1 && !strings.Contains(dsn, "=") {
		return slog.String(key, dsn)
	}
	for i, field := range fields {
		name, _, found := strings.Cut(field, "=")
		if found && strings.EqualFold(name, "password") {
			fields[i] = name + "=" + RedactedValue
		}
	}
	return slog.String(key, strings.Join(fields, " "))
}
