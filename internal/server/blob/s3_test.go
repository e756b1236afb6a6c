package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/peerlink/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(b)))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	lastKey string
	err     error
}

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastKey = *in.Key
	return &v4.PresignedHTTPRequest{URL: "https://s3.example/" + *in.Bucket + "/" + *in.Key}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs3 := &fakeS3{objects: map[string][]byte{}}
	fp := &fakePresigner{}
	s := &S3Store{client: fs3, presigner: fp, bucket: "peerlink"}

	require.NoError(t, s.Put(ctx, "shared/k", []byte("cipher")))
	assert.Contains(t, fs3.objects, "peerlink/shared/k")

	got, err := s.Get(ctx, "shared/k")
	require.NoError(t, err)
	assert.Equal(t, []byte("cipher"), got)

	url, err := s.PresignGet(ctx, "shared/k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/peerlink/shared/k", url)

	require.NoError(t, s.Delete(ctx, "shared/k"))
	_, err = s.Get(ctx, "shared/k")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	s := &S3Store{client: &fakeS3{err: boom}, presigner: &fakePresigner{err: boom}, bucket: "b"}

	require.ErrorIs(t, s.Put(ctx, "k", nil), boom)
	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.Delete(ctx, "k"), boom)
	_, err = s.PresignGet(ctx, "k", time.Minute)
	require.ErrorContains(t, err, "s3 presign k: boom")
}

func TestNewS3Store_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load fail")
	}

	_, err := NewS3Store(context.Background(), S3Options{Region: "us-east-1"})
	require.ErrorContains(t, err, "load aws config: load fail")
}

func TestNewS3Store_PresignIsLocal(t *testing.T) {
	s, err := NewS3Store(context.Background(), S3Options{
		AccessKey: "admin",
		SecretKey: "secretpassword",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		Bucket:    "peerlink",
	})
	require.NoError(t, err)

	url, err := s.PresignGet(context.Background(), "shared/2026/1/2/abc", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/peerlink/shared/2026/1/2/abc?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
}
