package model

import "time"

// Task is a single task list entry.
//
// OwnerID references the User that owns the task. Under the open identity
// model no owner is attached and OwnerID stays empty; under the bearer and
// session models every task is stamped with its creator's user ID and all
// reads and writes are filtered by it. Ownership is immutable after creation.
//
// Title is unique within an owner scope (globally when unowned). The service
// enforces this with a lookup before insert; the tasks table carries a
// matching unique index as a backstop against concurrent creates.
type Task struct {
	ID        string    `json:"id"        db:"id"`
	Title     string    `json:"title"     db:"title"`
	Completed bool      `json:"completed" db:"completed"`
	OwnerID   string    `json:"ownerId,omitempty" db:"owner_id"` // empty = unowned (open model)
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
