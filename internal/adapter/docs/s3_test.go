package docs

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeS3 struct {
	objects  map[string]string
	pageSize int
	putErr   error
	listErr  error
	deletes  int
	failKey  string
}

func newFakeS3(keys ...string) *fakeS3 {
	f := &fakeS3{objects: map[string]string{}, pageSize: 2}
	for _, k := range keys {
		f.objects[k] = ""
	}
	return f
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

// ListObjectsV2 pages through the sorted keys, using the key as token.
func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := sortedKeys(f.objects)
	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		for start < len(keys) && keys[start] <= tok {
			start++
		}
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.deletes++
	out := &s3.DeleteObjectsOutput{}
	for _, obj := range in.Delete.Objects {
		key := aws.ToString(obj.Key)
		if key == f.failKey {
			out.Errors = append(out.Errors, s3types.Error{Key: obj.Key, Message: aws.String("Access Denied")})
			continue
		}
		delete(f.objects, key)
		out.Deleted = append(out.Deleted, s3types.DeletedObject{Key: obj.Key})
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

func TestS3Sink_Put(t *testing.T) {
	client := newFakeS3()
	sink := NewS3Sink(client, "kb-bucket", zap.NewNop())

	err := sink.Put(context.Background(), "policy_20240101_000000.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", client.objects["policy_20240101_000000.pdf"])
}

func TestS3Sink_PutError(t *testing.T) {
	client := newFakeS3()
	client.putErr = errors.New("NoSuchBucket")
	sink := NewS3Sink(client, "kb-bucket", nil)

	err := sink.Put(context.Background(), "a.pdf", "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kb-bucket/a.pdf")
}

func TestS3Sink_DeleteAll(t *testing.T) {
	client := newFakeS3("a.pdf", "b.pdf", "c.csv", "d.csv", "e.pdf")
	sink := NewS3Sink(client, "kb-bucket", zap.NewNop())

	n, err := sink.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Empty(t, client.objects)
	assert.Equal(t, 3, client.deletes)
}

func TestS3Sink_DeleteAllEmptyBucket(t *testing.T) {
	client := newFakeS3()
	sink := NewS3Sink(client, "kb-bucket", nil)

	n, err := sink.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, client.deletes)
}

func TestS3Sink_DeleteAllPartialFailure(t *testing.T) {
	client := newFakeS3("a.pdf", "b.pdf")
	client.failKey = "b.pdf"
	sink := NewS3Sink(client, "kb-bucket", nil)

	n, err := sink.DeleteAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "b.pdf")
}

func TestS3Sink_DeleteAllListError(t *testing.T) {
	client := newFakeS3("a.pdf")
	client.listErr = errors.New("AccessDenied")
	sink := NewS3Sink(client, "kb-bucket", nil)

	_, err := sink.DeleteAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}
