package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// Client identifies who made a request, for audit entries.
type Client struct {
	IPAddress string
	UserAgent string
	// APIKey is the fingerprint of the key that authenticated the request.
	APIKey string
}

// auditAgent is the user agent stored with audit entries, labelled with
// the API key fingerprint when one authenticated the request.
func (c Client) auditAgent() string {
	if c.APIKey == "" {
		return c.UserAgent
	}
	if c.UserAgent == "" {
		return "key:" + c.APIKey
	}
	return c.UserAgent + " (key:" + c.APIKey + ")"
}

// WithClient attaches client details to ctx.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// ClientFromContext returns the client stored by WithClient, or the zero
// Client for background work such as the CLI and schedulers.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(ctxKeyClient).(Client)
	return c
}
