package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage(t *testing.T) {
	stub := NewStubObjectStorage()
	ctx := context.Background()

	require.NoError(t, stub.Upload(ctx, "receipts/1.pdf", []byte("%PDF"), "application/pdf"))

	_, err := stub.Download(ctx, "receipts/1.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	assert.NoError(t, stub.Delete(ctx, "receipts/1.pdf"))

	url, expiresAt, err := stub.GenerateDownloadURL(ctx, "receipts/1.pdf", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.True(t, expiresAt.IsZero())
}

func TestStubObjectStorage_EmptyKey(t *testing.T) {
	stub := NewStubObjectStorage()
	ctx := context.Background()

	assert.Error(t, stub.Upload(ctx, "", nil, ""))
	_, err := stub.Download(ctx, "")
	assert.Error(t, err)
	assert.Error(t, stub.Delete(ctx, ""))
	_, _, err = stub.GenerateDownloadURL(ctx, "", 0)
	assert.Error(t, err)
}
