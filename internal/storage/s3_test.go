package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestSave(t *testing.T) {
	putter := &fakePutter{}
	store := NewWithClient(putter, "reports", "prod/")

	require.NoError(t, store.Save(context.Background(), "reminder-runs/2026/01/13/run.json", []byte(`{"sent":1}`)))

	assert.Equal(t, "reports", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "prod/reminder-runs/2026/01/13/run.json", aws.ToString(putter.input.Key))
	assert.Equal(t, "application/json", aws.ToString(putter.input.ContentType))
	assert.JSONEq(t, `{"sent":1}`, string(putter.body))
}

func TestSaveWrapsError(t *testing.T) {
	store := NewWithClient(&fakePutter{err: errors.New("denied")}, "reports", "")
	err := store.Save(context.Background(), "k", nil)
	assert.ErrorContains(t, err, "denied")
}
