// Package logins owns the canonical portal credentials, one row per internal
// user. Passwords are stored exactly as imported, i.e. encrypted.
package logins
