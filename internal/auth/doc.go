// Package auth provides authentication for the blackboard gateway.
//
// # Tokens
//
// Bearer credentials are JWTs signed with HS256 using the configured
// jwt_secret. Claims carry at minimum sub, iat, and exp; the expiry is
// iat plus the configured TTL (default one hour). Verify accepts either a
// bare token or a full "Bearer <token>" Authorization header value, with
// the prefix stripped case-insensitively. Signature comparison is
// constant-time (handled by the jwt library's HMAC verification).
//
// # Identities
//
// Usernames and bcrypt password hashes live in an in-memory concurrent
// map with put-if-absent registration. Persistence is deliberately out of
// scope here; the gateway seeds a demo account at startup.
//
// # Gate
//
// Service ties the two together: Login and Register issue tokens, and
// Validate gates dispatch requests that do not themselves request the
// Authentication capability.
package auth
