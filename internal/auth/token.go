// Package auth attaches the shopper's bearer token to outbound requests.
package auth

import (
	"os"

	"github.com/pkg/errors"

	"github.com/malonaz/shopchat/internal/file"
)

// TokenSource yields the current bearer token. An empty token means anonymous.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

// FileToken reads the token from a file on every call, so that a login in
// another process takes effect without a restart.
type FileToken string

// Token implements TokenSource. A missing file is anonymous.
func (f FileToken) Token() (string, error) {
	token, err := file.ReadTrimmed(string(f))
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return "", nil
		}
		return "", errors.Wrap(err, "reading token file")
	}
	return token, nil
}

// NewTokenSource picks the token file when set, the static token otherwise.
func NewTokenSource(token, tokenFile string) TokenSource {
	if tokenFile != "" {
		return FileToken(tokenFile)
	}
	return StaticToken(token)
}
