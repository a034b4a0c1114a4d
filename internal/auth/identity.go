package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/internal/debug"
)

// Identity resolves the authenticated user from the bearer token.
type Identity struct {
	source TokenSource
}

// NewIdentity returns an identity backed by source.
func NewIdentity(source TokenSource) *Identity {
	return &Identity{source: source}
}

// UserID returns the user id carried by the token. Anonymous shoppers have none.
// The signature is not verified: the id is only a hint passed back to the backend.
func (i *Identity) UserID() (int64, bool) {
	if i == nil || i.source == nil {
		return 0, false
	}
	token, err := i.source.Token()
	if err != nil || token == "" {
		return 0, false
	}
	id, err := userIDFromToken(token)
	if err != nil {
		debug.GetLogger().WithError(err).Debug("no user id in token")
		return 0, false
	}
	return id, id > 0
}

func userIDFromToken(raw string) (int64, error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return 0, errors.Wrap(err, "parsing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	if value, ok := claims["userId"]; ok {
		return claimToInt(value)
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return claimToInt(sub)
	}
	return 0, errors.New("token has no user id")
}

func claimToInt(value any) (int64, error) {
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "parsing user id %q", v)
		}
		return id, nil
	default:
		return 0, errors.Errorf("unexpected user id type %T", value)
	}
}
