// Package user provides account persistence and profile management.
//
// Accounts are stored in SQLite with Argon2id password hashes. Profile
// updates are split into self-service (email, phone) and administrator
// (role included) paths so the HTTP layer can enforce who may change what.
package user
