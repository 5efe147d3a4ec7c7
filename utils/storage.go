package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotAnImage is returned when an image upload cannot be decoded.
	ErrNotAnImage = errors.New("file is not a supported image")
)

// StoredFile describes an upload written by Storage.
type StoredFile struct {
	Name string // relative name, e.g. blog/files/2024/05/01/report.pdf
	Size int64
}

// Storage keeps uploads on the local filesystem below root and serves them under baseURL.
type Storage struct {
	root      string
	baseURL   string
	maxBytes  int64
	maxWidth  int
	maxHeight int
	now       func() time.Time
}

// NewStorage creates a Storage. Images larger than maxWidth x maxHeight are shrunk to fit.
func NewStorage(root, baseURL string, maxBytes int64, maxWidth, maxHeight int) *Storage {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Storage{
		root:      root,
		baseURL:   baseURL,
		maxBytes:  maxBytes,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		now:       time.Now,
	}
}

// UploadPath returns the storage name of an upload: blog/{kind}/{YYYY}/{MM}/{DD}/{filename}.
func UploadPath(kind string, t time.Time, filename string) string {
	return path.Join("blog", kind, t.Format("2006"), t.Format("01"), t.Format("02"), filename)
}

// Root returns the directory uploads are written to.
func (s *Storage) Root() string {
	return s.root
}

// URL returns the public address of a stored name.
func (s *Storage) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.baseURL + name
}

// Path returns the filesystem location of a stored name.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Delete removes a stored file; a missing file is not an error.
func (s *Storage) Delete(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Save writes r as filename into the kind namespace of today's directory. When isImage is
// set the content must decode as an image; it is re-oriented and shrunk before writing.
func (s *Storage) Save(kind, filename string, r io.Reader, isImage bool) (*StoredFile, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	filename = sanitizeFilename(filename)
	if isImage {
		data, err = s.normalizeImage(data, filename)
		if err != nil {
			return nil, err
		}
	}

	dir := s.Path(UploadPath(kind, s.now(), ""))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	name := UploadPath(kind, s.now(), availableName(dir, filename))
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &StoredFile{Name: name, Size: int64(len(data))}, nil
}

func (s *Storage) normalizeImage(data []byte, filename string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}

	format, err := imaging.FormatFromFilename(filename)
	if err != nil {
		// keep formats imaging cannot encode (webp) untouched
		return data, nil
	}

	orientation := exifOrientation(data)
	bounds := img.Bounds()
	if orientation <= 1 && bounds.Dx() <= s.maxWidth && bounds.Dy() <= s.maxHeight {
		return data, nil
	}

	img = orient(img, orientation)
	img = imaging.Fit(img, s.maxWidth, s.maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// exifOrientation returns the EXIF orientation tag, or 1 when absent.
func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

var filenameReplacer = strings.NewReplacer(
	" ", "_",
	"'", "",
	"\"", "",
	"<", "",
	">", "",
	"&", "",
	"#", "",
	"?", "",
	"%", "",
	"\\", "",
)

func sanitizeFilename(filename string) string {
	filename = filenameReplacer.Replace(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if filename == "." || filename == "/" || filename == "" {
		filename = "upload"
	}
	return filename
}

// availableName appends a short random suffix before the extension while filename is taken.
func availableName(dir, filename string) string {
	name := filename
	for {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		ext := path.Ext(filename)
		name = strings.TrimSuffix(filename, ext) + "_" + uuid.NewString()[:7] + ext
	}
}
