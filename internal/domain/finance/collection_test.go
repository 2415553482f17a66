package finance

import (
	"testing"
	"time"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollection(t *testing.T) {
	t.Run("requires collector and customer", func(t *testing.T) {
		_, err := NewCollection(uuid.Nil, uuid.New(), time.Now())
		assert.True(t, shared.IsValidationError(err))

		_, err = NewCollection(uuid.New(), uuid.Nil, time.Now())
		assert.True(t, shared.IsValidationError(err))
	})

	t.Run("defaults collection date", func(t *testing.T) {
		c, err := NewCollection(uuid.New(), uuid.New(), time.Time{})
		require.NoError(t, err)
		assert.False(t, c.CollectedAt.IsZero())
		assert.False(t, c.Delivered)
		assert.Empty(t, c.Applications)
	})
}

func TestCollection_SetClientReference(t *testing.T) {
	c, err := NewCollection(uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)

	require.NoError(t, c.SetClientReference(" offline-42 "))
	assert.Equal(t, "offline-42", c.ClientReference)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	assert.Error(t, c.SetClientReference(string(long)))
}

func TestCollection_AddApplication_ForeignInstallment(t *testing.T) {
	f := newReconcileFixture(t)
	c, err := NewCollection(f.collector.UserID, f.customer.ID, time.Now())
	require.NoError(t, err)

	err = c.AddApplication(f.saleA, &f.saleB.Installments[0], d("10"))

	assert.True(t, shared.IsValidationError(err))
	assert.Empty(t, c.Applications)
}

func TestCollection_MarkDelivered(t *testing.T) {
	c, err := NewCollection(uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	at := time.Now()

	require.NoError(t, c.MarkDelivered(at))
	assert.True(t, c.Delivered)
	assert.Equal(t, at, *c.DeliveredAt)

	err = c.MarkDelivered(at)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCollection_Validate(t *testing.T) {
	f := newReconcileFixture(t)
	c, err := NewCollection(f.collector.UserID, f.customer.ID, time.Now())
	require.NoError(t, err)

	assert.Error(t, c.Validate())

	require.NoError(t, c.AddApplication(f.saleA, &f.saleA.Installments[1], d("10")))
	assert.NoError(t, c.Validate())
	assert.NotNil(t, c.Application(c.Applications[0].ID))
	assert.Nil(t, c.Application(uuid.New()))
}

func TestNewCollectionDelivery(t *testing.T) {
	collectionID, by := uuid.New(), uuid.New()
	at := time.Now()

	delivery := NewCollectionDelivery(collectionID, by, at)

	assert.Equal(t, collectionID, delivery.CollectionID)
	assert.Equal(t, by, delivery.DeliveredBy)
	assert.Equal(t, at, delivery.DeliveredAt)
}
