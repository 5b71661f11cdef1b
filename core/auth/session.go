package auth

import (
	"errors"
	"time"

	"portfolio-admin/config"
	"portfolio-admin/core/rbac"
	"portfolio-admin/core/store"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the fixed claim set carried by a session token. The
// struct is the whole contract: lockout counters and the password digest
// have no field here and can never be embedded.
type SessionClaims struct {
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	DisplayName       string    `json:"display_name"`
	Role              rbac.Role `json:"role"`
	MustResetPassword bool      `json:"must_reset_password"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) SubjectID() string {
	return c.Subject
}

// SessionIssuer mints and validates stateless session tokens. There is no
// refresh and no server-side revocation list: a token stays valid until its
// expiry, and claims go stale until the user re-authenticates.
type SessionIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(cfg config.SessionConfig) *SessionIssuer {
	return &SessionIssuer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

// Issue projects the session view of user into a signed token. Pure
// projection: no extra lookups happen here.
func (i *SessionIssuer) Issue(user *store.User) (string, *SessionClaims, error) {
	now := i.now().UTC()
	jti, err := uuid.NewV4()
	if err != nil {
		return "", nil, err
	}
	claims := &SessionClaims{
		Username:          user.Username,
		Email:             user.Email,
		DisplayName:       user.DisplayName,
		Role:              user.Role,
		MustResetPassword: user.MustResetPassword,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    i.issuer,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse validates the token and returns its claims. The claims are copied
// straight out of the token; the backing store is not consulted.
func (i *SessionIssuer) Parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if _, ok := rbac.ParseRole(string(claims.Role)); !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (i *SessionIssuer) TTL() time.Duration {
	return i.ttl
}
