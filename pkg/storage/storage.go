package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// FileInfo is the metadata the lifecycle tracker needs for one stored file.
type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
	Created     time.Time
	Updated     time.Time
}

// ChunkReader yields a file's bytes as an ordered sequence of chunks, ending
// with io.EOF. Close releases the underlying connection.
type ChunkReader interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// ObjectStore is the object storage collaborator. File names are relative to
// the configured bucket prefix.
type ObjectStore interface {
	List(ctx context.Context) ([]FileInfo, error)
	Stream(ctx context.Context, name string) (ChunkReader, error)
	Stat(ctx context.Context, name string) (FileInfo, error)
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, name string) error
}

// MinioStore implements ObjectStore against an S3-compatible endpoint.
type MinioStore struct {
	conn      *minio.Client
	bucket    string
	prefix    string
	chunkSize int
	logger    zerolog.Logger
}

// NewMinioStore connects to the object storage endpoint and verifies that the
// bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey string, useSSL bool, bucket, prefix string,
	chunkSize int, logger zerolog.Logger) (*MinioStore, error) {

	conn, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	exists, err := conn.BucketExists(context.Background(), bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to establish object storage connection: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", bucket)
	}

	return &MinioStore{
		conn:      conn,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		chunkSize: chunkSize,
		logger:    logger,
	}, nil
}

// List returns the files under the configured prefix, names relative to it.
func (s *MinioStore) List(ctx context.Context) ([]FileInfo, error) {
	opts := minio.ListObjectsOptions{Recursive: true}
	if s.prefix != "" {
		opts.Prefix = s.prefix + "/"
	}

	var files []FileInfo
	for obj := range s.conn.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %q: %w", s.bucket, obj.Err)
		}
		files = append(files, FileInfo{
			Name:        strings.TrimPrefix(obj.Key, opts.Prefix),
			Size:        obj.Size,
			ContentType: obj.ContentType,
			Created:     obj.LastModified,
			Updated:     obj.LastModified,
		})
	}
	return files, nil
}

// Stream opens name for chunked reading.
func (s *MinioStore) Stream(ctx context.Context, name string) (ChunkReader, error) {
	obj, err := s.conn.GetObject(ctx, s.bucket, s.fullName(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", name, err)
	}
	return &objectChunks{obj: obj, buf: make([]byte, s.chunkSize)}, nil
}

// Stat returns the metadata of one file.
func (s *MinioStore) Stat(ctx context.Context, name string) (FileInfo, error) {
	info, err := s.conn.StatObject(ctx, s.bucket, s.fullName(name), minio.StatObjectOptions{})
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat %q: %w", name, err)
	}
	return FileInfo{
		Name:        name,
		Size:        info.Size,
		ContentType: info.ContentType,
		Created:     info.LastModified,
		Updated:     info.LastModified,
	}, nil
}

// Copy duplicates src to dst within the bucket. Used with Delete to relocate
// processed files into the archive folder.
func (s *MinioStore) Copy(ctx context.Context, src, dst string) error {
	_, err := s.conn.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: s.fullName(dst)},
		minio.CopySrcOptions{Bucket: s.bucket, Object: s.fullName(src)},
	)
	if err != nil {
		return fmt.Errorf("failed to copy %q to %q: %w", src, dst, err)
	}
	return nil
}

// Delete removes one file.
func (s *MinioStore) Delete(ctx context.Context, name string) error {
	if err := s.conn.RemoveObject(ctx, s.bucket, s.fullName(name), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	return nil
}

func (s *MinioStore) fullName(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// objectChunks adapts a storage object into a ChunkReader.
type objectChunks struct {
	obj *minio.Object
	buf []byte

	pendingEOF bool
}

func (c *objectChunks) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pendingEOF {
		return nil, io.EOF
	}

	n, err := c.obj.Read(c.buf)
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, c.buf[:n])
		if err == io.EOF {
			c.pendingEOF = true
		} else if err != nil {
			return nil, err
		}
		return chunk, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte{}, nil
}

func (c *objectChunks) Close() error {
	return c.obj.Close()
}
