package ingress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saiputravu/matchbook/internal/domain"
)

func TestGateway_Duplicate_WithinWindow(t *testing.T) {
	g := NewGateway(NewChannelBus(1), nil, 4)

	assert.False(t, g.duplicate(domain.OrderID(1)))
	assert.True(t, g.duplicate(domain.OrderID(1)), "a second submission of the same id is a duplicate")
	assert.False(t, g.duplicate(domain.OrderID(2)), "a different id is never a duplicate")
}

func TestGateway_Duplicate_EvictsOldestBeyondWindow(t *testing.T) {
	g := NewGateway(NewChannelBus(1), nil, 2)

	g.duplicate(1)
	g.duplicate(2)
	g.duplicate(3) // evicts id 1

	assert.False(t, g.duplicate(1), "id 1 fell out of the recency window and is no longer tracked")
}
