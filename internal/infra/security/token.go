package security

import (
	"context"
	"errors"
)

var ErrTokenUnknown = errors.New("security: unknown token")

// TokenResolver turns a bearer token into a user id. Token issuance and
// verification belong to the identity service; this core only needs the
// resolved principal.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

// StaticResolver resolves tokens from a fixed table, for development and
// single-tenant deployments.
type StaticResolver struct {
	tokens map[string]int64
}

func NewStaticResolver(tokens map[string]int64) *StaticResolver {
	copied := make(map[string]int64, len(tokens))
	for k, v := range tokens {
		copied[k] = v
	}
	return &StaticResolver{tokens: copied}
}

func (r *StaticResolver) Resolve(_ context.Context, token string) (int64, error) {
	id, ok := r.tokens[token]
	if !ok {
		return 0, ErrTokenUnknown
	}
	return id, nil
}
