// Package auth provides password hashing and JWT access tokens.
//
// Passwords are hashed with Argon2id and stored in PHC string format.
// Access tokens are HS256-signed JWTs carrying the username as subject
// plus the account role; they are validated by signature alone, so no
// database round-trip is needed per request.
package auth
