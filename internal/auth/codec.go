package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/course-backoffice/internal/model"
)

// TokenErrorKind distinguishes why an access token failed verification.
// The authentication filter records the kind so the unauthorized response
// can say precisely what was wrong with the token.
type TokenErrorKind int

const (
	TokenMalformed TokenErrorKind = iota + 1
	TokenExpired
	TokenUnsupported
	TokenEmptyClaims
	TokenBadSignature
)

// Message is the text shown to clients for the kind.
func (k TokenErrorKind) Message() string {
	switch k {
	case TokenMalformed:
		return "Invalid JWT token"
	case TokenExpired:
		return "Expired JWT token"
	case TokenUnsupported:
		return "Unsupported JWT token"
	case TokenEmptyClaims:
		return "JWT claims string is empty"
	case TokenBadSignature:
		return "Invalid JWT signature"
	}
	return MsgUnauthorized
}

func (k TokenErrorKind) String() string {
	switch k {
	case TokenMalformed:
		return "malformed"
	case TokenExpired:
		return "expired"
	case TokenUnsupported:
		return "unsupported"
	case TokenEmptyClaims:
		return "empty_claims"
	case TokenBadSignature:
		return "bad_signature"
	}
	return "unknown"
}

// TokenError is returned by TokenCodec.Verify.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "access token " + e.Kind.String() + ": " + e.Err.Error()
	}
	return "access token " + e.Kind.String()
}

func (e *TokenError) Unwrap() error { return e.Err }

// errUnsupportedAlg is returned from the key func so the parser's wrapped
// error can be told apart from a bad signature.
var errUnsupportedAlg = errors.New("unsupported signing algorithm")

// tokenClaims is the wire form: {sub, username, role, iat, exp}.
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Claims is the verified payload of an access token. It can only be obtained
// from TokenCodec.Verify, so holding one means the signature and expiry
// have been checked.
type Claims struct {
	subject   string
	username  string
	role      model.Role
	issuedAt  time.Time
	expiresAt time.Time
}

func (c *Claims) Subject() string      { return c.subject }
func (c *Claims) Username() string     { return c.username }
func (c *Claims) Role() model.Role     { return c.role }
func (c *Claims) IssuedAt() time.Time  { return c.issuedAt }
func (c *Claims) ExpiresAt() time.Time { return c.expiresAt }

// AccessToken is a signed JWT along with its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// TokenCodec issues and verifies HS256 access tokens. It holds no mutable
// state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

func NewTokenCodec(secret []byte, accessTTL time.Duration, opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{secret: secret, ttl: accessTTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured access token lifetime.
func (c *TokenCodec) TTL() time.Duration { return c.ttl }

// Issue builds and signs an access token for the principal. iat is now and
// exp is now plus the configured TTL, both at second precision.
func (c *TokenCodec) Issue(principalID, username string, role model.Role) (AccessToken, error) {
	now := c.now().UTC().Truncate(time.Second)
	exp := now.Add(c.ttl)
	claims := tokenClaims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ExpiresAt: exp}, nil
}

// Verify parses the token, checks the HS256 signature against the secret and
// checks expiry. Failures are *TokenError values.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &TokenError{Kind: TokenEmptyClaims}
	}

	var tc tokenClaims
	_, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errUnsupportedAlg
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired(), jwt.WithIssuedAt())
	if err != nil {
		return nil, &TokenError{Kind: classify(err), Err: err}
	}

	if tc.Subject == "" || tc.Username == "" || tc.Role == "" {
		return nil, &TokenError{Kind: TokenEmptyClaims}
	}
	out := &Claims{
		subject:  tc.Subject,
		username: tc.Username,
		role:     model.Role(tc.Role),
	}
	if tc.IssuedAt != nil {
		out.issuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		out.expiresAt = tc.ExpiresAt.Time
	}
	return out, nil
}

// classify maps jwt/v5 errors onto token error kinds. The order matters:
// an unsupported algorithm is reported before anything else, and expiry is
// only reported for tokens whose signature checked out.
func classify(err error) TokenErrorKind {
	switch {
	case errors.Is(err, errUnsupportedAlg), errors.Is(err, jwt.ErrTokenUnverifiable):
		return TokenUnsupported
	case errors.Is(err, jwt.ErrTokenMalformed):
		return TokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return TokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return TokenExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return TokenEmptyClaims
	}
	return TokenMalformed
}
