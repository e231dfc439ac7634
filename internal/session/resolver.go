package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Session is the anonymous identity a request is served under
type Session struct {
	ID string
	// Token is a freshly signed token for ID, to be written back to the client
	Token string
	// New is true when the session was minted by this request
	New bool
}

// Resolver maps a client-presented token to a live session, minting a new
// session when the token is missing, tampered, expired or unknown
type Resolver struct {
	codec  *TokenCodec
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewResolver creates a resolver. Sessions idle for longer than ttl expire.
func NewResolver(codec *TokenCodec, store Store, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		codec:  codec,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve returns the session for token. An empty token always mints.
func (r *Resolver) Resolve(ctx context.Context, token string) (Session, error) {
	if token != "" {
		id, err := r.codec.Decode(token)
		if err == nil {
			alive, err := r.store.Touch(ctx, id, r.ttl)
			if err != nil {
				return Session{}, err
			}
			if alive {
				return r.issue(id, false)
			}
			r.logger.Debug("Session expired", zap.String("session_id", id))
		} else {
			r.logger.Debug("Rejected session token", zap.Error(err))
		}
	}

	id := NewID()
	if err := r.store.Register(ctx, id, r.ttl); err != nil {
		return Session{}, err
	}
	r.logger.Debug("Session created", zap.String("session_id", id))
	return r.issue(id, true)
}

func (r *Resolver) issue(id string, isNew bool) (Session, error) {
	token, err := r.codec.Encode(id)
	if err != nil {
		return Session{}, fmt.Errorf("failed to issue session %s: %w", id, err)
	}
	return Session{ID: id, Token: token, New: isNew}, nil
}
