package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SpaceStatus string

const (
	SpaceStatusAvailable SpaceStatus = "available"
	SpaceStatusOccupied  SpaceStatus = "occupied"
)

// Space represents a leasable parking space
type Space struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CompanyID   uuid.UUID       `json:"company_id" db:"company_id"`
	Code        string          `json:"code" db:"code"`
	Name        string          `json:"name" db:"name"`
	Type        string          `json:"type" db:"type"`
	Category    string          `json:"category" db:"category"`
	Size        string          `json:"size" db:"size"`
	MonthlyRate decimal.Decimal `json:"monthly_rate" db:"monthly_rate"`
	Currency    string          `json:"currency" db:"currency"`
	Status      SpaceStatus     `json:"status" db:"status"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

func (s *Space) IsAvailable() bool {
	return s.Status == SpaceStatusAvailable
}

// DTOs for requests and responses

type CreateSpaceRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Type        string          `json:"type" validate:"max=60"`
	Category    string          `json:"category" validate:"max=60"`
	Size        string          `json:"size" validate:"max=30"`
	MonthlyRate decimal.Decimal `json:"monthly_rate" validate:"required,decimal_gt=0"`
	Currency    string          `json:"currency" validate:"omitempty,iso4217"`
	Description string          `json:"description" validate:"max=1000"`
}
