// Package codec provides the body encodings used by response factories and request decoding.
package codec

import (
	"errors"
	"io"
	"net/http"
)

// ErrNilBody is returned by Decode when the request has no body.
var ErrNilBody = errors.New("codec: request has no body")

// Encoder turns a value into a response body.
type Encoder interface {
	// ContentType is the media type written alongside the encoded body.
	ContentType() string
	// Marshal serializes v into the wire format.
	Marshal(v any) ([]byte, error)
}

// Codec is an Encoder that can also read values back from the wire format.
type Codec interface {
	Encoder
	// Unmarshal deserializes data into v, which must be a pointer.
	Unmarshal(data []byte, v any) error
}

// Decode reads the whole request body and unmarshals it into v using c.
// The body is closed afterwards.
func Decode(c Codec, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return ErrNilBody
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return c.Unmarshal(body, v)
}
