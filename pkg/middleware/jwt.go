package middleware

import (
	"net/http"
	"time"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// JWTProvider authenticates HMAC-signed bearer tokens. The token subject becomes the
// authenticated principal.
type JWTProvider struct {
	Secret   []byte        // HMAC key
	Issuer   string        // Required issuer (optional)
	Audience string        // Required audience (optional)
	Leeway   time.Duration // Allowed clock skew for exp/nbf
}

// Authenticate implements AuthProvider.
func (p *JWTProvider) Authenticate(r *http.Request) (string, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return "", false
	}
	subject, err := p.Validate(token)
	if err != nil {
		return "", false
	}
	return subject, true
}

// Validate verifies the signature and registered claims of token and returns its subject.
func (p *JWTProvider) Validate(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(p.Leeway),
	}
	if p.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.Issuer))
	}
	if p.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.Secret, nil
	}, opts...)
	if err != nil {
		return "", errors.Wrap(err, "invalid token")
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// SignJWT issues an HS256 token for subject that expires after ttl.
func SignJWT(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// NewJWTMiddleware creates a middleware that requires a valid HS256/384/512 bearer token
// signed with secret.
func NewJWTMiddleware(secret []byte, logger *zap.Logger) common.Middleware {
	return AuthenticationWithProvider(&JWTProvider{Secret: secret}, logger)
}
