// Package jwt implements the signed token codec for authflow: short-lived
// access tokens and longer-lived refresh tokens, both JSON Web Tokens signed
// with HS256 or Ed25519.
//
// Access and refresh tokens share the claim layout but carry a distinct scope
// claim. Parsing enforces the expected scope, so an access token can never be
// presented where a refresh token is required and vice versa.
//
// # What this package must NOT do
//
//   - Perform I/O; it only signs and verifies.
//   - Know about accounts beyond the id and role embedded in claims.
package jwt
