package models

import "github.com/uptrace/bun"

// Operator is a timing desk account with a bcrypt-hashed password.
type Operator struct {
	bun.BaseModel `bun:"table:operators,alias:o"`

	ID       int    `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull,unique" json:"username"`
	Password string `bun:"password,notnull" json:"-"`
}
