package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Suhaibinator/SDispatch/pkg/codec"
	"github.com/Suhaibinator/SDispatch/pkg/common"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// the default factory must satisfy the capability handed to middleware
var _ common.ResponseFactory = (*Factory)(nil)

func TestResponseWrite(t *testing.T) {
	resp := New(http.StatusCreated, []byte("created"))
	resp.Header().Set("X-Test", "value")

	rr := httptest.NewRecorder()
	if err := resp.Write(rr); err != nil {
		t.Fatalf("Failed to write response: %v", err)
	}

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, rr.Code)
	}
	if rr.Header().Get("X-Test") != "value" {
		t.Errorf("Expected X-Test header to be %q, got %q", "value", rr.Header().Get("X-Test"))
	}
	if rr.Body.String() != "created" {
		t.Errorf("Expected body %q, got %q", "created", rr.Body.String())
	}
}

func TestResponseZeroStatus(t *testing.T) {
	resp := New(0, nil)
	if resp.StatusCode() != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, resp.StatusCode())
	}

	rr := httptest.NewRecorder()
	if err := resp.Write(rr); err != nil {
		t.Fatalf("Failed to write response: %v", err)
	}
	if rr.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rr.Body.String())
	}
}

func TestFactoryText(t *testing.T) {
	resp := NewFactory().Text(http.StatusForbidden, "nope")

	if resp.StatusCode() != http.StatusForbidden {
		t.Errorf("Expected status code %d, got %d", http.StatusForbidden, resp.StatusCode())
	}
	if resp.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected content type %q", resp.Header().Get("Content-Type"))
	}
}

func TestFactoryJSON(t *testing.T) {
	resp, err := NewFactory().JSON(http.StatusOK, map[string]string{"status": "ok"})
	if err != nil {
		t.Fatalf("Failed to build JSON response: %v", err)
	}

	rr := httptest.NewRecorder()
	_ = resp.Write(rr)

	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type %q, got %q", "application/json", rr.Header().Get("Content-Type"))
	}
	if rr.Body.String() != `{"status":"ok"}` {
		t.Errorf("Unexpected body %q", rr.Body.String())
	}

	if _, err := NewFactory().JSON(http.StatusOK, make(chan int)); err == nil {
		t.Error("Expected an error encoding an unsupported value")
	}
}

func TestFactoryWithSonicEncoder(t *testing.T) {
	f := NewFactory(WithJSONEncoder(codec.NewSonicStdCodec()))

	resp, err := f.JSON(http.StatusOK, map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("Failed to build JSON response: %v", err)
	}
	if string(resp.(*Response).Body()) != `{"n":1}` {
		t.Errorf("Unexpected body %q", resp.(*Response).Body())
	}
}

func TestFactoryRedirect(t *testing.T) {
	f := NewFactory()

	resp := f.Redirect(http.StatusFound, "/login")
	if resp.StatusCode() != http.StatusFound {
		t.Errorf("Expected status code %d, got %d", http.StatusFound, resp.StatusCode())
	}
	if resp.Header().Get("Location") != "/login" {
		t.Errorf("Expected Location %q, got %q", "/login", resp.Header().Get("Location"))
	}

	// Non-redirect status codes fall back to 307
	if got := f.Redirect(http.StatusOK, "/x").StatusCode(); got != http.StatusTemporaryRedirect {
		t.Errorf("Expected status code %d, got %d", http.StatusTemporaryRedirect, got)
	}
}

func TestFactoryEncodeProto(t *testing.T) {
	resp, err := NewFactory().Encode(http.StatusOK, codec.NewProtoCodec(), wrapperspb.String("hi"))
	if err != nil {
		t.Fatalf("Failed to encode proto: %v", err)
	}
	if resp.Header().Get("Content-Type") != "application/x-protobuf" {
		t.Errorf("Unexpected content type %q", resp.Header().Get("Content-Type"))
	}

	if _, err := NewFactory().Encode(http.StatusOK, codec.NewProtoCodec(), "not a message"); err == nil {
		t.Error("Expected an error encoding a non-proto value")
	}
}
