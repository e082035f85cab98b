package gallery

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/pkg/logger"
)

// S3API is the slice of the S3 client the gallery needs. Tests
// substitute a fake.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Service stores gallery photos in S3 and their metadata in Postgres.
type Service struct {
	db        *sql.DB
	s3Client  S3API
	bucket    string
	cdnDomain string
	region    string
}

// NewService creates a gallery service with an existing S3 client.
func NewService(db *sql.DB, s3Client S3API, cfg config.GalleryConfig) *Service {
	return &Service{
		db:        db,
		s3Client:  s3Client,
		bucket:    cfg.S3Bucket,
		cdnDomain: cfg.CDNDomain,
		region:    cfg.AWSRegion,
	}
}

// NewServiceFromConfig creates a gallery service, building the S3 client
// from the default AWS credential chain.
func NewServiceFromConfig(ctx context.Context, db *sql.DB, cfg config.GalleryConfig) (*Service, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if profile := cfg.GetAWSProfile(); profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return NewService(db, s3.NewFromConfig(awsCfg), cfg), nil
}

const photoColumns = `id, wedding_id, filename, original_filename, content_type, size,
	width, height, caption, s3_key, s3_key_thumbnail, s3_key_medium, s3_key_large,
	cdn_url, cdn_url_thumbnail, cdn_url_medium, cdn_url_large, checksum, created_at`

// Upload stores a photo, generates resized variants, and records it
// against the wedding. Variant failures are non-fatal: the original
// always survives.
func (s *Service) Upload(ctx context.Context, weddingID, filename string, file io.Reader) (*Photo, error) {
	maxBytes := int64(MaxFileSizeMB*1024*1024) + 1
	data, err := io.ReadAll(io.LimitReader(file, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) > MaxFileSizeMB*1024*1024 {
		return nil, fmt.Errorf("file size exceeds maximum of %d MB", MaxFileSizeMB)
	}

	contentType := detectContentType(data)
	if !SupportedImageTypes[contentType] {
		return nil, fmt.Errorf("unsupported image type: %s", contentType)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	photoID := uuid.New().String()
	now := time.Now()
	ext := getExtension(contentType)

	baseKey := fmt.Sprintf("galleries/%s/%s/%s", weddingID, now.Format("2006/01"), photoID)
	s3Key := fmt.Sprintf("%s_original%s", baseKey, ext)

	hash := sha256.Sum256(data)
	checksum := hex.EncodeToString(hash[:])

	if err := s.uploadToS3(ctx, s3Key, data, contentType); err != nil {
		return nil, fmt.Errorf("uploading original to S3: %w", err)
	}

	photo := &Photo{
		ID:               photoID,
		WeddingID:        weddingID,
		Filename:         sanitizeFilename(filename),
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             int64(len(data)),
		Width:            width,
		Height:           height,
		S3Key:            s3Key,
		CDNURL:           s.buildCDNURL(s3Key),
		Checksum:         checksum,
		CreatedAt:        now,
	}

	variants := []struct {
		width int
		label string
		key   *string
		url   *string
	}{
		{LargeWidth, fmt.Sprintf("%dw", LargeWidth), &photo.S3KeyLarge, &photo.CDNURLLarge},
		{MediumWidth, fmt.Sprintf("%dw", MediumWidth), &photo.S3KeyMedium, &photo.CDNURLMedium},
		{ThumbnailWidth, fmt.Sprintf("%dw", ThumbnailWidth), &photo.S3KeyThumbnail, &photo.CDNURLThumbnail},
	}
	for _, v := range variants {
		if width <= v.width && v.width != ThumbnailWidth {
			continue
		}
		resized, err := resizeImage(img, v.width, format, JPEGQuality)
		if err != nil {
			continue
		}
		variantKey := fmt.Sprintf("%s_%s%s", baseKey, v.label, ext)
		if err := s.uploadToS3(ctx, variantKey, resized, contentType); err != nil {
			logger.Warn("variant upload failed", "key", variantKey, "error", err)
			continue
		}
		*v.key = variantKey
		*v.url = s.buildCDNURL(variantKey)
	}

	if err := s.savePhoto(ctx, photo); err != nil {
		return nil, fmt.Errorf("saving to database: %w", err)
	}

	return photo, nil
}

// Get returns a photo scoped to its wedding, or (nil, nil) when absent.
func (s *Service) Get(ctx context.Context, weddingID, photoID string) (*Photo, error) {
	p, err := scanPhoto(s.db.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM gallery_photos WHERE wedding_id = $1 AND id = $2`,
		weddingID, photoID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying photo: %w", err)
	}
	return p, nil
}

// List returns a page of a wedding's photos, newest first.
func (s *Service) List(ctx context.Context, weddingID string, page, limit int) ([]Photo, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 24
	}
	offset := (page - 1) * limit

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM gallery_photos WHERE wedding_id = $1`, weddingID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting photos: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM gallery_photos
		 WHERE wedding_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		weddingID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying photos: %w", err)
	}
	defer rows.Close()

	photos := []Photo{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning photo: %w", err)
		}
		photos = append(photos, *p)
	}
	return photos, total, rows.Err()
}

// SetCaption updates a photo's caption.
func (s *Service) SetCaption(ctx context.Context, weddingID, photoID, caption string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE gallery_photos SET caption = $3 WHERE wedding_id = $1 AND id = $2`,
		weddingID, photoID, caption)
	if err != nil {
		return fmt.Errorf("updating caption: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating caption: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("photo not found")
	}
	return nil
}

// Delete removes a photo and its variants from S3 and the database.
func (s *Service) Delete(ctx context.Context, weddingID, photoID string) error {
	photo, err := s.Get(ctx, weddingID, photoID)
	if err != nil {
		return err
	}
	if photo == nil {
		return fmt.Errorf("photo not found")
	}

	keys := []string{photo.S3Key}
	for _, k := range []string{photo.S3KeyThumbnail, photo.S3KeyMedium, photo.S3KeyLarge} {
		if k != "" {
			keys = append(keys, k)
		}
	}
	for _, key := range keys {
		_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			// Keep going: the database row is the source of truth.
			logger.Warn("failed to delete S3 object", "key", key, "error", err)
		}
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM gallery_photos WHERE wedding_id = $1 AND id = $2`, weddingID, photoID)
	if err != nil {
		return fmt.Errorf("deleting from database: %w", err)
	}
	return nil
}

func (s *Service) uploadToS3(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"), // 1 year cache
	})
	return err
}

func (s *Service) buildCDNURL(key string) string {
	if s.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnDomain, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *Service) savePhoto(ctx context.Context, p *Photo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_photos (
			id, wedding_id, filename, original_filename, content_type, size,
			width, height, caption, s3_key, s3_key_thumbnail, s3_key_medium, s3_key_large,
			cdn_url, cdn_url_thumbnail, cdn_url_medium, cdn_url_large, checksum, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19
		)
	`,
		p.ID, p.WeddingID, p.Filename, p.OriginalFilename, p.ContentType, p.Size,
		p.Width, p.Height, p.Caption, p.S3Key,
		nullIfEmpty(p.S3KeyThumbnail), nullIfEmpty(p.S3KeyMedium), nullIfEmpty(p.S3KeyLarge),
		p.CDNURL, nullIfEmpty(p.CDNURLThumbnail), nullIfEmpty(p.CDNURLMedium), nullIfEmpty(p.CDNURLLarge),
		p.Checksum, p.CreatedAt,
	)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPhoto(row scanner) (*Photo, error) {
	var p Photo
	var s3KeyThumb, s3KeyMed, s3KeyLarge sql.NullString
	var cdnURLThumb, cdnURLMed, cdnURLLarge sql.NullString
	var caption, checksum sql.NullString

	err := row.Scan(
		&p.ID, &p.WeddingID, &p.Filename, &p.OriginalFilename, &p.ContentType, &p.Size,
		&p.Width, &p.Height, &caption, &p.S3Key, &s3KeyThumb, &s3KeyMed, &s3KeyLarge,
		&p.CDNURL, &cdnURLThumb, &cdnURLMed, &cdnURLLarge, &checksum, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Caption = caption.String
	p.S3KeyThumbnail = s3KeyThumb.String
	p.S3KeyMedium = s3KeyMed.String
	p.S3KeyLarge = s3KeyLarge.String
	p.CDNURLThumbnail = cdnURLThumb.String
	p.CDNURLMedium = cdnURLMed.String
	p.CDNURLLarge = cdnURLLarge.String
	p.Checksum = checksum.String
	return &p, nil
}
