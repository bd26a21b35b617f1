package tools

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	gotSystem string
	gotUser   string
	reply     string
	err       error
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	return f.CompleteWithSystem(ctx, "", prompt)
}

func (f *fakeGenerator) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.gotSystem = systemPrompt
	f.gotUser = userPrompt
	return f.reply, f.err
}

func TestGeminiSearcher_Search(t *testing.T) {
	gen := &fakeGenerator{reply: "Acme raised $40M in 2024."}
	s := NewGeminiSearcher(gen, nil)

	out, err := s.Search(context.Background(), "Acme financial data 2024")
	require.NoError(t, err)
	assert.Equal(t, "Acme raised $40M in 2024.", out)
	assert.Contains(t, gen.gotSystem, "Market Intelligence Analyst")
	assert.Equal(t, "Acme financial data 2024", gen.gotUser)
}

func TestGeminiSearcher_Error(t *testing.T) {
	s := NewGeminiSearcher(&fakeGenerator{err: errors.New("quota")}, nil)
	_, err := s.Search(context.Background(), "anything")
	assert.Error(t, err)
}

func TestRowsToCSV(t *testing.T) {
	out, err := rowsToCSV(
		[]string{"company", "revenue"},
		[][]string{
			{"Acme", "1200"},
			{"Globex, Inc", "900"},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "company,revenue\nAcme,1200\n\"Globex, Inc\",900", out)
}

func TestRowsToCSV_HeaderOnly(t *testing.T) {
	out, err := rowsToCSV([]string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a,b", out)
}

func TestPythonRunner_Run(t *testing.T) {
	// sh stands in for python so the test has no interpreter dependency.
	r := NewPythonRunner("sh", nil)
	out, err := r.Run(context.Background(), "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestPythonRunner_Failure(t *testing.T) {
	r := NewPythonRunner("sh", nil)
	_, err := r.Run(context.Background(), "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPythonRunner_Timeout(t *testing.T) {
	r := NewPythonRunner("sh", nil, WithRunTimeout(100*time.Millisecond))
	_, err := r.Run(context.Background(), "sleep 5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestPythonRunner_WorkDir(t *testing.T) {
	dir := t.TempDir()
	r := NewPythonRunner("sh", nil, WithWorkDir(dir))
	_, err := r.Run(context.Background(), "pwd > marker.txt")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "marker.txt"))
	assert.NoError(t, err)
}

func TestLimitedWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, max: 5}
	n, err := lw.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "01234", buf.String())
}

type fakePutter struct {
	got *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.got = params
	if f.got != nil && f.got.Body != nil {
		io.Copy(io.Discard, f.got.Body)
	}
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Store_Upload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	putter := &fakePutter{}
	store := newS3Store(putter, "hub-charts", "us-east-1", nil)

	url, err := store.Upload(context.Background(), path, "analytics_123.png")
	require.NoError(t, err)
	assert.Equal(t, "https://hub-charts.s3.us-east-1.amazonaws.com/analytics_123.png", url)

	require.NotNil(t, putter.got)
	assert.Equal(t, "hub-charts", *putter.got.Bucket)
	assert.Equal(t, "analytics_123.png", *putter.got.Key)
	assert.Equal(t, blobCacheControl, *putter.got.CacheControl)
}

func TestS3Store_UploadMissingFile(t *testing.T) {
	store := newS3Store(&fakePutter{}, "hub-charts", "us-east-1", nil)
	_, err := store.Upload(context.Background(), "/nonexistent/chart.png", "x.png")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "open"))
}
