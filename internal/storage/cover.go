package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"bukinn/internal/apperror"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	coverMaxWidth  = 800
	coverMaxHeight = 1200
	coverQuality   = 85
	coverPrefix    = "books/covers/"
	coverCache     = "max-age=31536000"
)

var allowedCoverTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	ErrCoverTooLarge        = apperror.ValidationField("coverImage", "Cover image must be 5MB or smaller")
	ErrUnsupportedCoverType = apperror.ValidationField("coverImage", "Only JPEG, PNG and WebP images are allowed")
)

// ProcessCover checks an uploaded cover and re-encodes it as a JPEG that
// fits inside 800x1200. Smaller images keep their size.
func ProcessCover(data []byte, maxSize int64) ([]byte, error) {
	if int64(len(data)) > maxSize {
		return nil, ErrCoverTooLarge
	}
	if mt := mimetype.Detect(data); !mimetype.EqualsAny(mt.String(), allowedCoverTypes...) {
		return nil, ErrUnsupportedCoverType
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &apperror.AppError{Err: apperror.ErrValidation, Message: "Cover image could not be decoded", Field: "coverImage", Cause: err}
	}

	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), coverMaxWidth, coverMaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten onto white
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, fmt.Errorf("encode cover: %w", err)
	}
	return buf.Bytes(), nil
}

// fitWithin scales w x h down to fit maxW x maxH, keeping the aspect ratio.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(int(float64(w)*scale+0.5), 1)
	nh := max(int(float64(h)*scale+0.5), 1)
	return nw, nh
}

// CoverUploader stores processed book covers.
type CoverUploader struct {
	store   ObjectStore
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time
}

func NewCoverUploader(store ObjectStore, maxSize int64, logger *zap.Logger) *CoverUploader {
	return &CoverUploader{store: store, maxSize: maxSize, logger: logger, now: time.Now}
}

// Upload processes data and returns the public URL of the stored cover.
func (u *CoverUploader) Upload(ctx context.Context, originalName string, data []byte) (string, error) {
	processed, err := ProcessCover(data, u.maxSize)
	if err != nil {
		return "", err
	}

	now := u.now()
	key := fmt.Sprintf("%s%d-%s.jpg", coverPrefix, now.UnixMilli(), uuid.NewString()[:8])
	err = u.store.Put(ctx, key, bytes.NewReader(processed), int64(len(processed)), PutOptions{
		ContentType:  "image/jpeg",
		CacheControl: coverCache,
		Metadata: map[string]string{
			"original-name": originalName,
			"uploaded-at":   now.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", apperror.Provider("Failed to upload cover image", err)
	}
	return u.store.PublicURL(key), nil
}

// Remove deletes a cover by URL. Failures are logged and swallowed.
func (u *CoverUploader) Remove(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := u.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := u.store.Delete(ctx, key); err != nil {
		u.logger.Warn("failed to delete cover image", zap.String("key", key), zap.Error(err))
	}
}
