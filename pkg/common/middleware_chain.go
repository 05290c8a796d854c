package common

// MiddlewareChain represents an ordered chain of middleware.
// The dispatcher runs a chain from its last element to its first.
type MiddlewareChain []Middleware

// NewMiddlewareChain creates a new middleware chain
func NewMiddlewareChain(middlewares ...Middleware) MiddlewareChain {
	return middlewares
}

// Append adds middleware to the end of the chain.
// The receiver is never modified.
func (c MiddlewareChain) Append(middlewares ...Middleware) MiddlewareChain {
	result := make(MiddlewareChain, 0, len(c)+len(middlewares))
	result = append(result, c...)
	return append(result, middlewares...)
}

// Prepend adds middleware to the beginning of the chain
func (c MiddlewareChain) Prepend(middlewares ...Middleware) MiddlewareChain {
	result := make(MiddlewareChain, len(middlewares)+len(c))
	copy(result, middlewares)
	copy(result[len(middlewares):], c)
	return result
}

// Clone returns a copy of the chain that shares no backing array with c.
func (c MiddlewareChain) Clone() MiddlewareChain {
	if c == nil {
		return nil
	}
	result := make(MiddlewareChain, len(c))
	copy(result, c)
	return result
}
