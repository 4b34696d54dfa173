package inmemory

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/binarydesk/deposit-service/internal/entities"
	"github.com/binarydesk/deposit-service/internal/repository/database"
)

func (m *inmemoryProvider) CreateDeposit(ctx context.Context, d *entities.Deposit) error {
	if d.ID != 0 {
		return errors.New("create needs a new deposit")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.idSequence++
	d.ID = uint(m.idSequence)

	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	m.deposits[d.ID] = *d
	return nil
}

func (m *inmemoryProvider) GetDepositByID(ctx context.Context, id uint) (*entities.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.deposits[id]
	if !ok {
		return nil, database.ErrDepositNotFound
	}
	return &d, nil
}

func (m *inmemoryProvider) GetDepositsByFilter(ctx context.Context, query entities.DepositQuery) ([]entities.Deposit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.Deposit, 0)
	for _, d := range m.deposits {
		if query.UserID != "" && d.UserID != query.UserID {
			continue
		}
		if query.Status != "" && d.Status != query.Status {
			continue
		}
		result = append(result, d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (m *inmemoryProvider) UpdateDepositStatus(ctx context.Context, id uint, from entities.DepositStatus, to entities.DepositStatus, review entities.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.deposits[id]
	if !ok {
		return database.ErrDepositNotFound
	}
	if cur.Status != from {
		return database.ErrStatusConflict
	}

	if !review.At.Valid {
		review.At = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}
	cur.Status = to
	cur.Review = review
	cur.UpdatedAt = time.Now().UTC()

	m.deposits[id] = cur
	return nil
}
