package export

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name  string   `csv:"name"`
	Value *float64 `csv:"value"`
}

func TestFileSinkWritesCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFileSink(fs, "/exports")
	v := 1.5

	err := WriteCSV(context.Background(), sink, "1700000000/ws-1.csv", []row{{Name: "a", Value: &v}, {Name: "b"}})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, filepath.Join("/exports", "1700000000", "ws-1.csv"))
	require.NoError(t, err)
	assert.Equal(t, "name,value\na,1.5\nb,\n", string(data))
}

func TestFileSinkRemovesPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := NewFileSink(fs, "/exports")

	err := sink.Write(context.Background(), "x.csv", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("boom")
	})
	require.Error(t, err)
	exists, err := afero.Exists(fs, "/exports/x.csv")
	require.NoError(t, err)
	assert.False(t, exists)
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	client := &fakeS3{}
	sink := NewS3Sink(client, "bucket", "/exports/lightup/")

	require.NoError(t, WriteCSV(context.Background(), sink, "1/ws-1.csv", []row{{Name: "a"}}))
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "bucket", *client.inputs[0].Bucket)
	assert.Equal(t, "exports/lightup/1/ws-1.csv", *client.inputs[0].Key)
	assert.Equal(t, "name,value\na,\n", client.bodies[0])
	assert.Equal(t, "s3://bucket/exports/lightup/1/ws-1.csv", sink.Location("1/ws-1.csv"))
}

func TestOpenLocal(t *testing.T) {
	sink, err := Open(context.Background(), "/tmp/out")
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)
}
