package domain

import "time"

// RoleAdmin is the only role the admin area accepts.
const RoleAdmin = "admin"

// AdminUser is a back-office account.
type AdminUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OrderStats summarises orders for the admin dashboard.
type OrderStats struct {
	TotalOrders    int                 `json:"total_orders"`
	CountsByStatus map[OrderStatus]int `json:"counts_by_status"`
	PaidRevenue    int64               `json:"paid_revenue"`
	Currency       string              `json:"currency"`
}
