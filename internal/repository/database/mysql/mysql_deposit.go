package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/binarydesk/deposit-service/internal/entities"
	"github.com/binarydesk/deposit-service/internal/repository/database"
)

const queryTimeout = time.Second * 20

func (m *mysqlConnector) CreateDeposit(ctx context.Context, d *entities.Deposit) error {
	tCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return m.db.WithContext(tCtx).Create(d).Error
}

func (m *mysqlConnector) GetDepositByID(ctx context.Context, id uint) (*entities.Deposit, error) {
	tCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var d entities.Deposit
	res := m.db.WithContext(tCtx).First(&d, id)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, database.ErrDepositNotFound
		}
		return nil, res.Error
	}

	return &d, nil
}

func (m *mysqlConnector) GetDepositsByFilter(ctx context.Context, query entities.DepositQuery) ([]entities.Deposit, error) {
	tCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	deposits := make([]entities.Deposit, 0)
	res := depositsMatching(m.db.WithContext(tCtx), query).Find(&deposits)
	if res.Error != nil {
		return nil, res.Error
	}

	return deposits, nil
}

func (m *mysqlConnector) UpdateDepositStatus(ctx context.Context, id uint, from entities.DepositStatus, to entities.DepositStatus, review entities.Review) error {
	tCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if !review.At.Valid {
		review.At = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}

	res := statusTransition(m.db.WithContext(tCtx), id, from, to, review)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		// tell a missing deposit apart from one that was already reviewed
		if _, err := m.GetDepositByID(ctx, id); err != nil {
			return err
		}
		m.logger.Warn("deposit %d is no longer in status %s", id, from)
		return database.ErrStatusConflict
	}

	return nil
}

// depositsMatching applies the query filter, newest first. Zero fields do not filter.
func depositsMatching(db *gorm.DB, query entities.DepositQuery) *gorm.DB {
	return db.
		Where(&entities.Deposit{
			UserID: query.UserID,
			Status: query.Status,
		}).
		Order("id desc")
}

// statusTransition only touches the row while it is still in status from, so two
// concurrent reviews cannot both succeed.
func statusTransition(db *gorm.DB, id uint, from entities.DepositStatus, to entities.DepositStatus, review entities.Review) *gorm.DB {
	return db.
		Model(&entities.Deposit{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":           to,
			"reviewed_by":      review.By,
			"reviewed_comment": review.Comment,
			"reviewed_at":      review.At,
		})
}
