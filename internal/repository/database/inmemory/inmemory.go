package inmemory

import (
	"sync"

	"github.com/binarydesk/deposit-service/internal/entities"
	"github.com/binarydesk/deposit-service/internal/repository/database"
)

var _ database.Repository = (*inmemoryProvider)(nil)

type inmemoryProvider struct {
	mu         sync.RWMutex
	deposits   map[uint]entities.Deposit
	idSequence uint32
}

func NewInMemoryProvider() database.Repository {
	return &inmemoryProvider{
		deposits: make(map[uint]entities.Deposit),
	}
}

func (m *inmemoryProvider) Migrate() error {
	// Nothing to do here
	return nil
}
