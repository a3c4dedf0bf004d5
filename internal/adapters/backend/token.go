package backend

import "context"

// TokenProvider supplies a valid bearer token for the core-banking backend.
// The token lifecycle (issuance, refresh) is owned by a lower layer; the
// client only asks for the current token before each request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed service token from configuration.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider around a fixed token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token returns the configured token.
func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	return p.token, nil
}
