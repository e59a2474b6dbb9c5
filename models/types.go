package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pool status constants
const (
	StatusOpen    = "open"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// User role constants
const (
	RoleClient  = "client"
	RoleCompany = "company"
)

// Settlement triggers
const (
	TriggerInline = "inline"
	TriggerSweep  = "sweep"
)

// Request types

type SetRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageURL    string          `json:"image_url"`
}

type CreatePoolRequest struct {
	ProductID   string    `json:"product_id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	MinQuantity int       `json:"min_quantity"`
}

// Email may be omitted. When given it must match the caller's identity email.
type JoinPoolRequest struct {
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
}

// Response types

type CreatedResponse struct {
	ID string `json:"id"`
}

type JoinPoolResponse struct {
	ID         string `json:"id"`
	PoolStatus string `json:"pool_status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Domain types

type UserRole struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	CognitoSub string    `json:"cognito_sub"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Product struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Pool struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"product_id"`
	MinQuantity int        `json:"min_quantity"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
	Status      string     `json:"status"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PoolView is a pool joined with its product name and running total.
type PoolView struct {
	Pool
	ProductName string `json:"product_name"`
	TotalJoined int    `json:"total_joined"`
}

type Request struct {
	ID        string    `json:"id"`
	PoolID    string    `json:"pool_id"`
	Email     string    `json:"email"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Pool      *Pool     `json:"pool,omitempty"`
}

// Participant is one roster line of a settlement notification.
type Participant struct {
	Email    string `json:"email"`
	Quantity int    `json:"quantity"`
}

type Settlement struct {
	ID          string    `json:"id"`
	PoolID      string    `json:"pool_id"`
	Outcome     string    `json:"outcome"`
	TotalJoined int       `json:"total_joined"`
	MinQuantity int       `json:"min_quantity"`
	Trigger     string    `json:"trigger"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	SettledAt   time.Time `json:"settled_at"`
}

// Analytics types

type Overview struct {
	TotalPools        int             `json:"total_pools"`
	ActivePools       int             `json:"active_pools"`
	SuccessfulPools   int             `json:"successful_pools"`
	FailedPools       int             `json:"failed_pools"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalCustomers    int             `json:"total_customers"`
	TotalProducts     int             `json:"total_products"`
	TotalQuantitySold int             `json:"total_quantity_sold"`
	SuccessRate       float64         `json:"success_rate"`
}

type PoolSales struct {
	PoolID            string          `json:"pool_id"`
	ProductName       string          `json:"product_name"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	MinQuantity       int             `json:"min_quantity"`
	StartAt           time.Time       `json:"start_at"`
	EndAt             time.Time       `json:"end_at"`
	Status            string          `json:"status"`
	TotalQuantitySold int             `json:"total_quantity_sold"`
	TotalParticipants int             `json:"total_participants"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	ReachedMin        bool            `json:"reached_min_quantity"`
}

type CustomerSavings struct {
	Email                  string          `json:"email"`
	PoolsJoined            int             `json:"pools_joined"`
	TotalQuantityPurchased int             `json:"total_quantity_purchased"`
	TotalSpent             decimal.Decimal `json:"total_spent"`
	TotalSavings           decimal.Decimal `json:"total_savings"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
