// Package api is the HTTP gateway to the meal-tracking REST API.
//
// # Overview
//
// Client is configured once with a base address and default headers
// (JSON content type, Accept, User-Agent). Every call goes through Do, which
//  1. encodes the body as JSON,
//  2. attaches "Authorization: Bearer <token>" when a token is supplied,
//  3. tags the request with a fresh X-Request-ID for log correlation,
//  4. decodes a 2xx JSON response into out.
//
// The client does not retry and does not cache.
//
// # Error Handling
//
// A transport failure (no response) is returned wrapped around ErrNetwork.
// A non-2xx response is returned as *HTTPError carrying the status and the
// server message; an HTTPError with status 401 also matches ErrUnauthorized
// through errors.Is.
//
// Typed helpers (Login, ListMeals, CreateFoodComponent, ...) map the REST
// endpoints onto models types.
package api
