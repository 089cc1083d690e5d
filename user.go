package vellum

import "time"

// User is referenced, not owned: account management lives outside this
// service. The row is read for commit attribution and access checks.
type User struct {
	ID        UserID    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}
