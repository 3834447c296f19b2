package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Checker validates API keys.
type Checker struct {
	mode   string
	header string
	key    string
}

// New returns a Checker. header is matched case-insensitively.
func New(mode, header, key string) *Checker {
	return &Checker{mode: mode, header: strings.ToLower(header), key: key}
}

// Enabled reports whether requests are checked at all.
func (c *Checker) Enabled() bool {
	return c.mode == "apikey" && c.key != ""
}

// Header returns the normalised header / metadata key.
func (c *Checker) Header() string { return c.header }

// Valid reports whether presented matches the configured key.
func (c *Checker) Valid(presented string) bool {
	if !c.Enabled() {
		return true
	}
	return presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(c.key)) == 1
}

func (c *Checker) checkContext(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get(c.header)
	if len(vals) == 0 || !c.Valid(vals[0]) {
		return status.Error(codes.Unauthenticated, "invalid api key")
	}
	return nil
}

// UnaryInterceptor returns a gRPC UnaryServerInterceptor enforcing the key.
func (c *Checker) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if err := c.checkContext(ctx); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor returns a gRPC StreamServerInterceptor enforcing the key.
// The health service's Watch method is a server stream, so both are needed.
func (c *Checker) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if err := c.checkContext(ss.Context()); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
