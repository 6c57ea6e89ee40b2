package memory

import (
	"context"
	"testing"

	"github.com/kirinyoku/coachseat/internal/repository"
	"github.com/kirinyoku/coachseat/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		return NewStore()
	})
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().Seats().CountAvailable(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
