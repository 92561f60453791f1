package upload

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"shop_api/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newLocalUploader(t *testing.T, max int64) (*Uploader, string) {
	t.Helper()
	dir := t.TempDir()
	local, err := NewLocal(dir, "http://localhost:5000/")
	require.NoError(t, err)
	u := NewUploader(local, max)
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return u, dir
}

func TestSaveImage_Local(t *testing.T) {
	u, dir := newLocalUploader(t, 0)

	url, err := u.SaveImage(context.Background(), "profileImage", "me.PNG", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^http://localhost:5000/uploads/profileImage-1700000000000-[0-9a-f-]{36}\.png$`), url)
	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)
}

func TestSaveImage_TooLarge(t *testing.T) {
	u, dir := newLocalUploader(t, 16)

	_, err := u.SaveImage(context.Background(), "profileImage", "big.png", bytes.NewReader(bytes.Repeat([]byte{1}, 17)))

	ae, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeTooLarge, ae.Code)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestSaveImage_UnsupportedType(t *testing.T) {
	u, _ := newLocalUploader(t, 0)

	_, err := u.SaveImage(context.Background(), "profileImage", "notes.txt", strings.NewReader("plain text"))

	ae, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeUnsupportedType, ae.Code)
	assert.Equal(t, 400, ae.Status())
}

func TestSaveImage_ExtensionIsEnough(t *testing.T) {
	u, _ := newLocalUploader(t, 0)

	url, err := u.SaveImage(context.Background(), "profileImage", "photo.jpg", strings.NewReader("not really a jpeg"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"))
}

func TestSaveImage_SniffedTypeWithoutExtension(t *testing.T) {
	u, _ := newLocalUploader(t, 0)

	url, err := u.SaveImage(context.Background(), "profileImage", "blob", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestSaveImage_StoredNameAlwaysHasImageExtension(t *testing.T) {
	names := []string{"x.html", "x.HTM", "x.svg", "x.php", "x.png.html", "x."}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			u, dir := newLocalUploader(t, 0)

			url, err := u.SaveImage(context.Background(), "profileImage", name, bytes.NewReader(pngHeader))
			require.NoError(t, err)

			ext := filepath.Ext(url)
			assert.Contains(t, []string{".jpg", ".jpeg", ".png", ".gif"}, ext)
			assert.Equal(t, ".png", ext)
			_, err = os.Stat(filepath.Join(dir, filepath.Base(url)))
			assert.NoError(t, err)
		})
	}
}

func TestSaveImage_Empty(t *testing.T) {
	u, _ := newLocalUploader(t, 0)

	_, err := u.SaveImage(context.Background(), "profileImage", "a.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, &apperr.Error{Kind: apperr.KindUpload, Code: apperr.CodeNoFile})
}

type fakePutter struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Put(t *testing.T) {
	putter := &fakePutter{}
	store := newS3(putter, S3Options{Bucket: "images", Region: "eu-west-1", Endpoint: "http://minio:9000/"})

	url, err := store.Put(context.Background(), "a.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "http://minio:9000/images/a.png", url)
	assert.Equal(t, "images", aws.ToString(putter.in.Bucket))
	assert.Equal(t, "a.png", aws.ToString(putter.in.Key))
	assert.Equal(t, "image/png", aws.ToString(putter.in.ContentType))
	assert.Equal(t, int64(len(pngHeader)), aws.ToInt64(putter.in.ContentLength))
}

func TestS3Put_AWSURLAndFailure(t *testing.T) {
	putter := &fakePutter{err: errors.New("access denied")}
	store := newS3(putter, S3Options{Bucket: "images", Region: "us-east-1"})
	assert.Equal(t, "https://images.s3.us-east-1.amazonaws.com", store.publicURL)

	u := NewUploader(store, 0)
	_, err := u.SaveImage(context.Background(), "profileImage", "a.png", bytes.NewReader(pngHeader))

	ae, ok := apperr.From(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeIOFailure, ae.Code)
	assert.Equal(t, 500, ae.Status())
}
