package domain

import "time"

// MenuItem is a purchasable dish offered on the menu.
type MenuItem struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Available   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
