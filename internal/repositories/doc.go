// Package repositories implements SQLite persistence for the application's durable client-side state.
//
// [TokenRepository] is the token store: a single opaque bearer token kept under the fixed
// [TokenKey]. Save overwrites, Load reports absence with ok=false, and Clear removes the row.
// The value is never validated or encrypted; the process trusts the storage file's permissions.
//
// Tables are created by the embedded migrations in package shared.
package repositories
