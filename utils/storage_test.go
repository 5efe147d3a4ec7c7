package utils

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s := NewStorage(t.TempDir(), "/media", 1<<20, 100, 100)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestUploadPath(t *testing.T) {
	at := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "blog/files/2023/01/09/report.final.pdf", UploadPath("files", at, "report.final.pdf"))
}

func TestStorageSaveFile(t *testing.T) {
	s := newTestStorage(t)

	f, err := s.Save("files", "report.final.pdf", strings.NewReader("pdf"), false)
	require.NoError(t, err)
	assert.Equal(t, "blog/files/2024/05/01/report.final.pdf", f.Name)
	assert.Equal(t, int64(3), f.Size)
	assert.Equal(t, "/media/blog/files/2024/05/01/report.final.pdf", s.URL(f.Name))

	b, err := os.ReadFile(s.Path(f.Name))
	require.NoError(t, err)
	assert.Equal(t, "pdf", string(b))
}

func TestStorageSaveCollision(t *testing.T) {
	s := newTestStorage(t)

	first, err := s.Save("files", "a.txt", strings.NewReader("1"), false)
	require.NoError(t, err)
	second, err := s.Save("files", "a.txt", strings.NewReader("2"), false)
	require.NoError(t, err)

	assert.NotEqual(t, first.Name, second.Name)
	assert.Regexp(t, `^blog/files/2024/05/01/a_[0-9a-f-]{7}\.txt$`, second.Name)
}

func TestStorageSaveSanitizesName(t *testing.T) {
	s := newTestStorage(t)

	f, err := s.Save("files", "../../etc/my file.txt", strings.NewReader("x"), false)
	require.NoError(t, err)
	assert.Equal(t, "blog/files/2024/05/01/my_file.txt", f.Name)
}

func TestStorageSaveTooLarge(t *testing.T) {
	s := newTestStorage(t)
	s.maxBytes = 4

	_, err := s.Save("files", "big.bin", strings.NewReader("12345"), false)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestStorageSaveImageShrinks(t *testing.T) {
	s := newTestStorage(t)

	f, err := s.Save("images", "wide.png", bytes.NewReader(pngBytes(t, 400, 100)), true)
	require.NoError(t, err)

	out, err := os.Open(s.Path(f.Name))
	require.NoError(t, err)
	defer out.Close()
	cfg, _, err := image.DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestStorageSaveRejectsNonImage(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Save("images", "fake.png", strings.NewReader("not an image"), true)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestStorageDelete(t *testing.T) {
	s := newTestStorage(t)

	f, err := s.Save("files", "gone.txt", strings.NewReader("x"), false)
	require.NoError(t, err)
	require.NoError(t, s.Delete(f.Name))
	_, err = os.Stat(s.Path(f.Name))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.Delete(f.Name))
}
