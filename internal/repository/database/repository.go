package database

import (
	"context"
	"errors"

	"github.com/binarydesk/deposit-service/internal/entities"
)

var (
	ErrDepositNotFound = errors.New("no matching deposit in database")
	// ErrStatusConflict is returned when a deposit no longer has the status an update expects.
	ErrStatusConflict = errors.New("deposit status was changed concurrently")
)

type Repository interface {
	Migrate() error
	DepositCRUD
}

type DepositCRUD interface {
	// CreateDeposit inserts a new deposit and sets its ID and timestamps.
	CreateDeposit(ctx context.Context, d *entities.Deposit) error
	GetDepositByID(ctx context.Context, id uint) (*entities.Deposit, error)
	// GetDepositsByFilter returns matching deposits, newest first.
	GetDepositsByFilter(ctx context.Context, query entities.DepositQuery) ([]entities.Deposit, error)
	// UpdateDepositStatus moves a deposit from one status to another in a single update.
	UpdateDepositStatus(ctx context.Context, id uint, from entities.DepositStatus, to entities.DepositStatus, review entities.Review) error
}
