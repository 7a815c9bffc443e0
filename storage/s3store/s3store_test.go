package s3store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dszqbsm/rentmonitor/storage"
)

// 每页最多返回pageSize个对象的假S3
type fakeS3 struct {
	objects  map[string][]byte
	pageSize int
	calls    int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.calls++
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		start, _ = strconv.Atoi(*in.ContinuationToken)
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func TestStore(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, pageSize: 2}
	s := NewWithClient(fake, "rentmonitor", nil)
	ctx := context.Background()

	for _, k := range []string{"raw/d/3.html", "raw/d/1.html", "raw/d/2.html", "extracted/x.csv"} {
		require.NoError(t, s.Put(ctx, k, []byte(k)))
	}

	keys, err := s.List(ctx, "raw/d/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/d/1.html", "raw/d/2.html", "raw/d/3.html"}, keys)
	assert.Equal(t, 2, fake.calls)

	data, err := s.Get(ctx, "raw/d/2.html")
	require.NoError(t, err)
	assert.Equal(t, "raw/d/2.html", string(data))

	_, err = s.Get(ctx, "raw/d/9.html")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
