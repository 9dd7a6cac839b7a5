package logging

import (
	"context"
	"log/slog"
	"strings"
)

const redacted = "[redacted]"

// secretKeys never reach the log output with their value.
var secretKeys = map[string]bool{
	"password":      true,
	"token":         true,
	"access":        true,
	"refresh":       true,
	"access_token":  true,
	"refresh_token": true,
	"authorization": true,
}

type attrsKey struct{}

// WithAttrs returns a context carrying key-value pairs that both logger
// implementations add to every record logged with that context. The REPL
// uses it to tag everything a command logs with the command name.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	prev, _ := ctx.Value(attrsKey{}).([]any)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(merged, prev...)
	merged = append(merged, args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// prepare prepends the context attributes to args and masks secret values.
// args itself is never modified.
func prepare(ctx context.Context, args []any) []any {
	var fromCtx []any
	if ctx != nil {
		fromCtx, _ = ctx.Value(attrsKey{}).([]any)
	}
	if len(fromCtx) == 0 && !hasSecret(args) {
		return args
	}

	out := make([]any, 0, len(fromCtx)+len(args))
	out = append(out, fromCtx...)
	out = append(out, args...)
	for i := 0; i < len(out); i++ {
		switch k := out[i].(type) {
		case slog.Attr:
			if isSecret(k.Key) {
				out[i] = slog.String(k.Key, redacted)
			}
		case string:
			if i+1 < len(out) {
				if isSecret(k) {
					out[i+1] = redacted
				}
				i++
			}
		}
	}
	return out
}

func hasSecret(args []any) bool {
	for i := 0; i < len(args); i++ {
		switch k := args[i].(type) {
		case slog.Attr:
			if isSecret(k.Key) {
				return true
			}
		case string:
			if isSecret(k) && i+1 < len(args) {
				return true
			}
			i++
		}
	}
	return false
}

func isSecret(key string) bool {
	return secretKeys[strings.ToLower(key)]
}
