// Package api is the single HTTP transport between GuacPlayer and its backend.
//
// # Overview
//
// Every service call goes through one Client built on resty. The client owns
// only transport configuration: the base URL, a 30 second timeout, JSON
// headers, and two interceptors.
//
//   - Before each request the current token is read through the injected
//     TokenFunc and sent as "Authorization: Bearer <token>". With no token
//     the header is absent. Each request also carries an X-Request-ID that
//     appears in the debug log line for the response.
//   - After each response any status >= 400 becomes an *Error. A 401 runs
//     every handler registered with OnUnauthorized, in order, before the
//     error reaches the caller.
//
// Transport failures are returned as *Error with Status 0. Nothing is
// retried.
//
// # Records
//
// The backend's response bodies are kept verbatim as Record values and read
// with gjson paths, so unknown or renamed fields never break decoding.
//
// # Error Messages
//
// Message and WithFallback pick the backend's "error" text when there is one
// and a caller-supplied fallback otherwise:
//
//	if err := client.Get(ctx, "/connections", q, &out); err != nil {
//		return api.WithFallback(err, "failed to fetch connections")
//	}
package api
