package repository

import (
	"context"

	"github.com/google/uuid"
)

const findUserById = `
SELECT id, name, email, role, created_at
FROM users
WHERE id = $1`

func (q *Queries) FindUserById(c context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRow(c, findUserById, id).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.CreatedAt,
	)
	return u, err
}
