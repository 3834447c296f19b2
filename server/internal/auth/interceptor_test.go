package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// passHandler is a grpc.UnaryHandler that returns ("ok", nil).
func passHandler(ctx context.Context, req interface{}) (interface{}, error) {
	return "ok", nil
}

func callWithKey(t *testing.T, c *Checker, header, key string) (interface{}, error) {
	t.Helper()
	ctx := context.Background()
	if key != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs(header, key))
	}
	return c.UnaryInterceptor()(ctx, nil, &grpc.UnaryServerInfo{}, passHandler)
}

// fakeStream is the minimum grpc.ServerStream needed by the stream interceptor.
type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s fakeStream) Context() context.Context { return s.ctx }

func TestUnary_ModeNone_PassesThrough(t *testing.T) {
	c := New("none", "x-api-key", "secret")
	res, err := c.UnaryInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{}, passHandler)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "ok" {
		t.Errorf("result: got %v, want ok", res)
	}
}

func TestUnary_EmptyKey_PassesThrough(t *testing.T) {
	c := New("apikey", "x-api-key", "")
	if c.Enabled() {
		t.Fatal("Enabled: got true with empty key")
	}
	if _, err := callWithKey(t, c, "x-api-key", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUnary_CorrectKey_Passes(t *testing.T) {
	c := New("apikey", "x-api-key", "supersecret")
	res, err := callWithKey(t, c, "x-api-key", "supersecret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != "ok" {
		t.Errorf("result: got %v, want ok", res)
	}
}

func TestUnary_WrongKey_Unauthenticated(t *testing.T) {
	c := New("apikey", "x-api-key", "supersecret")
	_, err := callWithKey(t, c, "x-api-key", "wrong")
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Errorf("code: got %v, want Unauthenticated", code)
	}
}

func TestUnary_NoMetadata_Unauthenticated(t *testing.T) {
	c := New("apikey", "x-api-key", "supersecret")
	_, err := c.UnaryInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{}, passHandler)
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Errorf("code: got %v, want Unauthenticated", code)
	}
}

func TestUnary_MixedCaseHeader(t *testing.T) {
	c := New("apikey", "X-Pool-Key", "tok")
	if c.Header() != "x-pool-key" {
		t.Fatalf("Header: got %q, want x-pool-key", c.Header())
	}
	if _, err := callWithKey(t, c, "x-pool-key", "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStream_EnforcesKey(t *testing.T) {
	c := New("apikey", "x-api-key", "supersecret")
	called := false
	handler := func(srv interface{}, ss grpc.ServerStream) error {
		called = true
		return nil
	}

	bad := fakeStream{ctx: metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "nope"))}
	err := c.StreamInterceptor()(nil, bad, &grpc.StreamServerInfo{}, handler)
	if code := status.Code(err); code != codes.Unauthenticated {
		t.Errorf("code: got %v, want Unauthenticated", code)
	}
	if called {
		t.Error("handler called despite bad key")
	}

	good := fakeStream{ctx: metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-key", "supersecret"))}
	if err := c.StreamInterceptor()(nil, good, &grpc.StreamServerInfo{}, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler not called with good key")
	}
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := New("apikey", "x-api-key", "supersecret").Middleware(ok)

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusUnauthorized},
		{"correct", "supersecret", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil)
			if tc.key != "" {
				req.Header.Set("X-Api-Key", tc.key)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Errorf("status: got %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := New("none", "x-api-key", "supersecret").Middleware(ok)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rr.Code)
	}
}
