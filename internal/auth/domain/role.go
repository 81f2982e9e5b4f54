package domain

import "time"

type Role struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
