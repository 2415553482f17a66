package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseAggregateRoot(t *testing.T) {
	a := NewBaseAggregateRoot()

	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
}

func TestMarkChanged(t *testing.T) {
	a := NewBaseAggregateRoot()
	a.UpdatedAt = a.UpdatedAt.Add(-time.Hour)
	before := a.UpdatedAt

	a.MarkChanged()
	a.MarkChanged()

	assert.Equal(t, 3, a.Version)
	assert.True(t, a.UpdatedAt.After(before))
}

func TestTouchKeepsVersion(t *testing.T) {
	a := NewBaseAggregateRoot()
	a.UpdatedAt = time.Time{}

	a.Touch()

	assert.Equal(t, 1, a.Version)
	assert.False(t, a.UpdatedAt.IsZero())
}
