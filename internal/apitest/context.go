package apitest

import (
	"context"
	"strconv"
)

func withUser(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

func userFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}

func itoa(n int) string { return strconv.Itoa(n) }
