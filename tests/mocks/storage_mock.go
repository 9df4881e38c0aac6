package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/wildtrack/ornitela-ingest/pkg/storage"
)

// MockObjectStore is a mock implementation of the ObjectStore interface.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) List(ctx context.Context) ([]storage.FileInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.FileInfo), args.Error(1)
}

func (m *MockObjectStore) Stream(ctx context.Context, name string) (storage.ChunkReader, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(storage.ChunkReader), args.Error(1)
}

func (m *MockObjectStore) Stat(ctx context.Context, name string) (storage.FileInfo, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(storage.FileInfo), args.Error(1)
}

func (m *MockObjectStore) Copy(ctx context.Context, src, dst string) error {
	args := m.Called(ctx, src, dst)
	return args.Error(0)
}

func (m *MockObjectStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// FakeChunkReader serves a fixed chunk sequence, for driving the pipeline in
// tests without object storage.
type FakeChunkReader struct {
	Chunks [][]byte
	Closed bool

	next int
}

func (f *FakeChunkReader) Next(ctx context.Context) ([]byte, error) {
	if f.next >= len(f.Chunks) {
		return nil, io.EOF
	}
	chunk := f.Chunks[f.next]
	f.next++
	return chunk, nil
}

func (f *FakeChunkReader) Close() error {
	f.Closed = true
	return nil
}
