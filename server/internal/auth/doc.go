// Package auth provides API key authentication for the ttlpool listeners.
//
// A Checker built from (mode, header, key) is shared by the gRPC unary and
// stream interceptors and by the HTTP middleware guarding the REST API.
//
// When mode != "apikey" or key == "", every request passes through (useful
// for local use with auth disabled). A missing or wrong key is rejected with
// codes.Unauthenticated on gRPC and 401 on HTTP.
package auth
