package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/postboard/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  []string
	deletes []string
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, in)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func stubS3(t *testing.T, fake *fakeS3) *s3.Options {
	t.Helper()
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	captured := &s3.Options{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		for _, fn := range optFns {
			fn(captured)
		}
		return fake
	}
	return captured
}

func testOptions() Options {
	return Options{
		Region:       "us-east-1",
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		BaseEndpoint: "http://127.0.0.1:9000",
		Bucket:       "postboard",
	}
}

func TestNewS3ImageStore_AppliesEndpoint(t *testing.T) {
	opts := stubS3(t, &fakeS3{})

	store, err := NewS3ImageStore(context.Background(), testOptions())
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3ImageStore_Errors(t *testing.T) {
	stubS3(t, &fakeS3{})

	o := testOptions()
	o.Bucket = ""
	_, err := NewS3ImageStore(context.Background(), o)
	assert.Error(t, err)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = NewS3ImageStore(context.Background(), testOptions())
	assert.EqualError(t, err, "load-fail")
}

func TestS3ImageStore_PutAndDelete(t *testing.T) {
	fake := &fakeS3{}
	stubS3(t, fake)

	store, err := NewS3ImageStore(context.Background(), testOptions())
	require.NoError(t, err)
	store.now = func() time.Time { return time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC) }

	key, err := store.Put(context.Background(), "u1", services.ImageUpload{
		Name: "Cat.PNG", ContentType: "image/png", Size: 3, Body: strings.NewReader("cat"),
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^images/u1/2024/03/07/[0-9a-f-]{36}\.png$`), key)

	require.Len(t, fake.puts, 1)
	in := fake.puts[0]
	assert.Equal(t, "postboard", aws.ToString(in.Bucket))
	assert.Equal(t, key, aws.ToString(in.Key))
	assert.Equal(t, "image/png", aws.ToString(in.ContentType))
	assert.Equal(t, int64(3), aws.ToInt64(in.ContentLength))
	assert.Equal(t, "cat", fake.bodies[0])

	require.NoError(t, store.Delete(context.Background(), key))
	assert.Equal(t, []string{key}, fake.deletes)
}

func TestS3ImageStore_ClientErrors(t *testing.T) {
	fake := &fakeS3{err: errors.New("no such bucket")}
	stubS3(t, fake)

	store, err := NewS3ImageStore(context.Background(), testOptions())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "u1", services.ImageUpload{Name: "a.png", Body: strings.NewReader("a")})
	assert.ErrorContains(t, err, "no such bucket")

	err = store.Delete(context.Background(), "k")
	assert.ErrorContains(t, err, "no such bucket")
}
