package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Suhaibinator/SDispatch/pkg/common"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthProvider defines an interface for authentication providers.
// The package includes BasicAuthProvider, BearerTokenProvider and APIKeyProvider.
type AuthProvider interface {
	// Authenticate returns the authenticated principal (username, token or key) and
	// whether authentication succeeded.
	Authenticate(r *http.Request) (string, bool)
}

// BasicAuthProvider provides HTTP Basic Authentication.
// It validates username and password credentials against a predefined map.
type BasicAuthProvider struct {
	Credentials map[string]string // username -> password, or bcrypt hash when Hashed
	Hashed      bool
}

// Authenticate authenticates a request using HTTP Basic Authentication.
func (p *BasicAuthProvider) Authenticate(r *http.Request) (string, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return "", false
	}

	expected, exists := p.Credentials[username]
	if !exists {
		return "", false
	}
	if p.Hashed {
		if bcrypt.CompareHashAndPassword([]byte(expected), []byte(password)) != nil {
			return "", false
		}
	} else if subtle.ConstantTimeCompare([]byte(password), []byte(expected)) != 1 {
		return "", false
	}
	return username, true
}

// HashPassword returns a bcrypt hash of password for use with a hashed BasicAuthProvider.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// BearerTokenProvider provides Bearer Token Authentication.
// It can validate tokens against a predefined map or using a custom validator function.
type BearerTokenProvider struct {
	ValidTokens map[string]bool         // token -> valid
	Validator   func(token string) bool // optional token validator
}

// Authenticate authenticates a request using Bearer Token Authentication.
// The validator function takes precedence over the ValidTokens map.
func (p *BearerTokenProvider) Authenticate(r *http.Request) (string, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return "", false
	}
	if p.Validator != nil {
		return token, p.Validator(token)
	}
	return token, p.ValidTokens[token]
}

// APIKeyProvider provides API Key Authentication.
// It can validate API keys provided in a header or query parameter.
type APIKeyProvider struct {
	ValidKeys map[string]bool // key -> valid
	Header    string          // header name (e.g., "X-API-Key")
	Query     string          // query parameter name (e.g., "api_key")
}

// Authenticate authenticates a request using API Key Authentication.
// The header is checked before the query parameter.
func (p *APIKeyProvider) Authenticate(r *http.Request) (string, bool) {
	if p.Header != "" {
		if key := r.Header.Get(p.Header); key != "" && p.ValidKeys[key] {
			return key, true
		}
	}
	if p.Query != "" {
		if key := r.URL.Query().Get(p.Query); key != "" && p.ValidKeys[key] {
			return key, true
		}
	}
	return "", false
}

func bearerToken(r *http.Request) (string, bool) {
	return strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
}

type userIDKey struct{}

// UserIDKey is the State key holding the authenticated principal's identifier.
var UserIDKey = userIDKey{}

// UserID returns the identifier stored by the authentication middleware, or "".
func UserID(r *http.Request) string {
	id, _ := common.StateValue[string](r, UserIDKey)
	return id
}

// Identifiable is implemented by user types that expose an identifier. The user
// authentication middleware stores it under UserIDKey for rate limiting by user.
type Identifiable interface {
	UserID() string
}

func unauthorized(res common.ResponseFactory) common.Result {
	resp := res.Text(http.StatusUnauthorized, "Unauthorized")
	return common.Respond(resp)
}

func logAuthFailure(logger *zap.Logger, r *http.Request, err error) {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	logger.Warn("Authentication failed", fields...)
}

// AuthenticationWithProvider creates a middleware that authenticates the request with
// provider. Failed authentication responds 401 Unauthorized; success records the
// principal in the request State and continues.
func AuthenticationWithProvider(provider AuthProvider, logger *zap.Logger) common.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		principal, ok := provider.Authenticate(r)
		if !ok {
			logAuthFailure(logger, r, nil)
			return unauthorized(res), nil
		}
		if state := common.RequestState(r); state != nil {
			state.Set(UserIDKey, principal)
		}
		return common.Continue(), nil
	}
}

// Authentication creates a middleware from a simple auth function.
func Authentication(authFunc func(*http.Request) bool) common.Middleware {
	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		if !authFunc(r) {
			return unauthorized(res), nil
		}
		return common.Continue(), nil
	}
}

// NewBasicAuthMiddleware creates a middleware that uses HTTP Basic Authentication.
func NewBasicAuthMiddleware(credentials map[string]string, logger *zap.Logger) common.Middleware {
	return AuthenticationWithProvider(&BasicAuthProvider{Credentials: credentials}, logger)
}

// NewHashedBasicAuthMiddleware is like NewBasicAuthMiddleware but credentials map usernames
// to bcrypt hashes.
func NewHashedBasicAuthMiddleware(credentials map[string]string, logger *zap.Logger) common.Middleware {
	return AuthenticationWithProvider(&BasicAuthProvider{Credentials: credentials, Hashed: true}, logger)
}

// NewBearerTokenMiddleware creates a middleware that uses Bearer Token Authentication.
func NewBearerTokenMiddleware(validTokens map[string]bool, logger *zap.Logger) common.Middleware {
	return AuthenticationWithProvider(&BearerTokenProvider{ValidTokens: validTokens}, logger)
}

// NewBearerTokenValidatorMiddleware creates a middleware that uses Bearer Token Authentication
// with a custom validator function.
func NewBearerTokenValidatorMiddleware(validator func(string) bool, logger *zap.Logger) common.Middleware {
	return AuthenticationWithProvider(&BearerTokenProvider{Validator: validator}, logger)
}

// NewAPIKeyMiddleware creates a middleware that uses API Key Authentication.
func NewAPIKeyMiddleware(validKeys map[string]bool, header, query string, logger *zap.Logger) common.Middleware {
	return AuthenticationWithProvider(&APIKeyProvider{ValidKeys: validKeys, Header: header, Query: query}, logger)
}

// UserAuthProvider defines an interface for authentication providers that return a user object.
type UserAuthProvider[T any] interface {
	// AuthenticateUser returns the user for the request, or an error when the request
	// is not authenticated.
	AuthenticateUser(r *http.Request) (*T, error)
}

// BasicUserAuthProvider provides HTTP Basic Authentication with user object return.
type BasicUserAuthProvider[T any] struct {
	GetUserFunc func(username, password string) (*T, error)
}

// AuthenticateUser authenticates a request using HTTP Basic Authentication.
func (p *BasicUserAuthProvider[T]) AuthenticateUser(r *http.Request) (*T, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, errors.New("no basic auth credentials")
	}
	return p.GetUserFunc(username, password)
}

// BearerTokenUserAuthProvider provides Bearer Token Authentication with user object return.
type BearerTokenUserAuthProvider[T any] struct {
	GetUserFunc func(token string) (*T, error)
}

// AuthenticateUser authenticates a request using Bearer Token Authentication.
func (p *BearerTokenUserAuthProvider[T]) AuthenticateUser(r *http.Request) (*T, error) {
	if r.Header.Get("Authorization") == "" {
		return nil, errors.New("no authorization header")
	}
	token, ok := bearerToken(r)
	if !ok {
		return nil, errors.New("invalid authorization header format")
	}
	return p.GetUserFunc(token)
}

// APIKeyUserAuthProvider provides API Key Authentication with user object return.
type APIKeyUserAuthProvider[T any] struct {
	GetUserFunc func(key string) (*T, error)
	Header      string // header name (e.g., "X-API-Key")
	Query       string // query parameter name (e.g., "api_key")
}

// AuthenticateUser authenticates a request using API Key Authentication.
func (p *APIKeyUserAuthProvider[T]) AuthenticateUser(r *http.Request) (*T, error) {
	if p.Header != "" {
		if key := r.Header.Get(p.Header); key != "" {
			return p.GetUserFunc(key)
		}
	}
	if p.Query != "" {
		if key := r.URL.Query().Get(p.Query); key != "" {
			return p.GetUserFunc(key)
		}
	}
	return nil, errors.New("no API key found")
}

// userKey returns the State key under which users of type T are stored.
func userKey[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// AuthenticationWithUserProvider creates a middleware that authenticates with provider and
// stores the user in the request State. Failed authentication responds 401 Unauthorized.
func AuthenticationWithUserProvider[T any](provider UserAuthProvider[T], logger *zap.Logger) common.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return AuthenticationWithUser(func(r *http.Request) (*T, error) {
		user, err := provider.AuthenticateUser(r)
		if err != nil || user == nil {
			logAuthFailure(logger, r, err)
		}
		return user, err
	})
}

// AuthenticationWithUser creates a middleware from an auth function returning a user object.
func AuthenticationWithUser[T any](authFunc func(*http.Request) (*T, error)) common.Middleware {
	return func(r *http.Request, res common.ResponseFactory) (common.Result, error) {
		user, err := authFunc(r)
		if err != nil || user == nil {
			return unauthorized(res), nil
		}
		SetUser(r, user)
		return common.Continue(), nil
	}
}

// SetUser stores user in the request State. Users implementing Identifiable also have
// their identifier recorded under UserIDKey.
func SetUser[T any](r *http.Request, user *T) {
	state := common.RequestState(r)
	if state == nil {
		return
	}
	state.Set(userKey[T](), user)
	if id, ok := any(user).(Identifiable); ok {
		state.Set(UserIDKey, id.UserID())
	}
}

// GetUser retrieves the user of type T from the request State.
// Returns nil if no user is found.
func GetUser[T any](r *http.Request) *T {
	user, _ := common.StateValue[*T](r, userKey[T]())
	return user
}

// NewBasicAuthWithUserMiddleware creates a middleware that uses HTTP Basic Authentication
// and returns a user object.
func NewBasicAuthWithUserMiddleware[T any](getUserFunc func(username, password string) (*T, error), logger *zap.Logger) common.Middleware {
	return AuthenticationWithUserProvider[T](&BasicUserAuthProvider[T]{GetUserFunc: getUserFunc}, logger)
}

// NewBearerTokenWithUserMiddleware creates a middleware that uses Bearer Token Authentication
// and returns a user object.
func NewBearerTokenWithUserMiddleware[T any](getUserFunc func(token string) (*T, error), logger *zap.Logger) common.Middleware {
	return AuthenticationWithUserProvider[T](&BearerTokenUserAuthProvider[T]{GetUserFunc: getUserFunc}, logger)
}

// NewAPIKeyWithUserMiddleware creates a middleware that uses API Key Authentication
// and returns a user object.
func NewAPIKeyWithUserMiddleware[T any](getUserFunc func(key string) (*T, error), header, query string, logger *zap.Logger) common.Middleware {
	return AuthenticationWithUserProvider[T](&APIKeyUserAuthProvider[T]{GetUserFunc: getUserFunc, Header: header, Query: query}, logger)
}
