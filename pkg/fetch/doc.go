// Package fetch provides an HTTP client that retries transient failures, decodes
// response bodies and classifies errors.
//
// A request is described by functional options on top of the client defaults:
//
//	client := fetch.NewClient(fetch.WithLogger(logger))
//
//	body, err := client.Do(ctx, "https://api.example.com/uploads",
//		fetch.WithMethod(http.MethodPost),
//		fetch.WithBody(map[string]any{"name": "report.csv"}),
//		fetch.WithRetries(3))
//
// Bodies that are not already text are serialized to JSON and sent with
// Content-Type: application/json unless the caller set a content type. Responses are
// decoded into JSON data when possible and into a string otherwise. WithBuffer keeps
// the raw bytes.
//
// Classification:
//
//   - 5xx responses are retryable, as are 404 responses when WithRetryNotFound is set
//   - Transport failures are retryable only for ECONNREFUSED, ECONNRESET, EPIPE,
//     EHOSTUNREACH and EAI_AGAIN
//   - Everything else, including a failing Transform, ends the request
//
// Failures are returned as *Error. Use IsRetryable, StatusCode, EnvelopeOf and CodeOf
// to inspect them.
//
// Transport selection:
//
// An explicit WithAgent wins. Otherwise the ProxyResolver is asked for a transport
// unless WithNoProxy is set, and the client's base transport is used when it returns
// nil. The default resolver follows HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
package fetch
