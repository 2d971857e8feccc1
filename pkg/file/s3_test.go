package file_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/file"
	"github.com/dmitrymomot/formkit/pkg/formdata"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *mockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadObjectOutput), args.Error(1)
}

func (m *mockS3Client) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.HeadBucketOutput), args.Error(1)
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.DeleteObjectOutput), args.Error(1)
}

func newS3(t *testing.T, client *mockS3Client) *file.S3Storage {
	t.Helper()
	s, err := file.NewS3Storage(context.Background(), file.S3Config{
		Bucket: "forms",
		Region: "eu-west-1",
	}, file.WithS3Client(client))
	require.NoError(t, err)
	return s
}

func TestNewS3Storage(t *testing.T) {
	t.Parallel()

	t.Run("requires bucket and region", func(t *testing.T) {
		t.Parallel()
		_, err := file.NewS3Storage(context.Background(), file.S3Config{Region: "us-east-1"})
		assert.ErrorIs(t, err, file.ErrInvalidConfig)
		_, err = file.NewS3Storage(context.Background(), file.S3Config{Bucket: "b"})
		assert.ErrorIs(t, err, file.ErrInvalidConfig)
	})

	t.Run("builds sdk client", func(t *testing.T) {
		t.Parallel()
		s, err := file.NewS3Storage(context.Background(), file.S3Config{
			Bucket:         "forms",
			Region:         "us-east-1",
			AccessKeyID:    "key",
			SecretKey:      "secret",
			Endpoint:       "http://localhost:9000/",
			ForcePathStyle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/forms/a.png", s.URL("a.png"))
	})

	t.Run("default and custom base url", func(t *testing.T) {
		t.Parallel()
		s := newS3(t, new(mockS3Client))
		assert.Equal(t, "https://forms.s3.eu-west-1.amazonaws.com/a/b.png", s.URL("/a/b.png"))

		s, err := file.NewS3Storage(context.Background(), file.S3Config{
			Bucket: "forms", Region: "eu-west-1", BaseURL: "https://cdn.example.com",
		}, file.WithS3Client(new(mockS3Client)))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.png", s.URL("a.png"))
	})
}

func TestS3Storage_Save(t *testing.T) {
	t.Parallel()

	t.Run("uploads content", func(t *testing.T) {
		t.Parallel()
		client := new(mockS3Client)
		f := &formdata.File{Filename: "a.png", ContentType: "image/png", Content: pngHeader}

		client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			body, _ := io.ReadAll(in.Body)
			if seeker, ok := in.Body.(io.Seeker); ok {
				_, _ = seeker.Seek(0, io.SeekStart)
			}
			return *in.Bucket == "forms" &&
				*in.Key == "avatars/a.png" &&
				*in.ContentType == "image/png" &&
				*in.ContentLength == int64(len(pngHeader)) &&
				in.Metadata["sha256"] == file.Hash(f) &&
				string(body) == string(pngHeader)
		})).Return(&s3.PutObjectOutput{}, nil)

		stored, err := newS3(t, client).Save(context.Background(), f, "/avatars/")
		require.NoError(t, err)
		assert.Equal(t, "avatars/a.png", stored.Key)
		assert.Equal(t, int64(len(pngHeader)), stored.Size)
		assert.Empty(t, stored.AbsolutePath)
		client.AssertExpectations(t)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		t.Parallel()
		client := new(mockS3Client)
		_, err := newS3(t, client).Save(context.Background(), &formdata.File{Filename: "a"}, "../etc/passwd")
		assert.ErrorIs(t, err, file.ErrInvalidPath)
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
	})

	t.Run("nil file", func(t *testing.T) {
		t.Parallel()
		_, err := newS3(t, new(mockS3Client)).Save(context.Background(), nil, "a")
		assert.ErrorIs(t, err, file.ErrNilFile)
	})

	t.Run("classifies errors", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			err  error
			want error
		}{
			{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, file.ErrAccessDenied},
			{"slow down", &smithy.GenericAPIError{Code: "SlowDown"}, file.ErrServiceUnavailable},
			{"timeout code", &smithy.GenericAPIError{Code: "RequestTimeout"}, file.ErrRequestTimeout},
			{"no bucket", &types.NoSuchBucket{}, file.ErrBucketNotFound},
			{"deadline", context.DeadlineExceeded, file.ErrOperationTimeout},
			{"canceled", context.Canceled, file.ErrOperationCanceled},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				client := new(mockS3Client)
				client.On("PutObject", mock.Anything, mock.Anything).Return(nil, tt.err)
				_, err := newS3(t, client).Save(context.Background(), &formdata.File{Filename: "a.txt"}, "a.txt")
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("unknown api error keeps cause", func(t *testing.T) {
		t.Parallel()
		cause := &smithy.GenericAPIError{Code: "InternalError"}
		client := new(mockS3Client)
		client.On("PutObject", mock.Anything, mock.Anything).Return(nil, cause)
		_, err := newS3(t, client).Save(context.Background(), &formdata.File{Filename: "a.txt"}, "a.txt")
		var apiErr smithy.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "InternalError", apiErr.ErrorCode())
	})
}

func TestS3Storage_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes existing", func(t *testing.T) {
		t.Parallel()
		client := new(mockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything).Return(&s3.HeadObjectOutput{}, nil)
		client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
			return *in.Key == "a/b.txt"
		})).Return(&s3.DeleteObjectOutput{}, nil)

		require.NoError(t, newS3(t, client).Delete(context.Background(), "/a/b.txt"))
		client.AssertExpectations(t)
	})

	t.Run("missing object", func(t *testing.T) {
		t.Parallel()
		client := new(mockS3Client)
		client.On("HeadObject", mock.Anything, mock.Anything).Return(nil, &types.NotFound{})
		err := newS3(t, client).Delete(context.Background(), "a.txt")
		assert.ErrorIs(t, err, file.ErrFileNotFound)
		client.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})
}

func TestS3Storage_ExistsAndPing(t *testing.T) {
	t.Parallel()

	client := new(mockS3Client)
	client.On("HeadObject", mock.Anything, mock.MatchedBy(func(in *s3.HeadObjectInput) bool {
		return *in.Key == "present.txt"
	})).Return(&s3.HeadObjectOutput{}, nil)
	client.On("HeadObject", mock.Anything, mock.Anything).Return(nil, &types.NotFound{})
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(&s3.HeadBucketOutput{}, nil).Once()
	client.On("HeadBucket", mock.Anything, mock.Anything).Return(nil, &types.NoSuchBucket{})

	s := newS3(t, client)
	ctx := context.Background()
	assert.True(t, s.Exists(ctx, "present.txt"))
	assert.False(t, s.Exists(ctx, "absent.txt"))
	assert.False(t, s.Exists(ctx, "../x"))

	assert.NoError(t, s.Ping(ctx))
	assert.ErrorIs(t, s.Ping(ctx), file.ErrBucketNotFound)
}
