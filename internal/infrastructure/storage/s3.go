// Package storage keeps tier2 evidence documents in S3 (or any S3-compatible
// store such as MinIO). Objects are private; reviewers get presigned links.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/rentahome/kyc-service/internal/core/ports"
)

type Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

type S3Store struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
	}, nil
}

// Store uploads doc under folder with a random object name. The returned Ref
// is the object key; URL is the bucket location and is not publicly readable.
func (s *S3Store) Store(ctx context.Context, doc ports.Document, folder string) (ports.StoredDocument, error) {
	key := ObjectKey(folder, doc.Filename)

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        doc.Body,
		ContentType: aws.String(doc.ContentType),
	})
	if err != nil {
		return ports.StoredDocument{}, fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return ports.StoredDocument{Ref: key, URL: out.Location}, nil
}

func (s *S3Store) PresignURL(ctx context.Context, ref string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s: %w", ref, err)
	}
	return req.URL, nil
}

// ObjectKey builds folder/<uuid><ext>, keeping only a short lowercase
// extension from the client supplied filename.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 5 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+ext)
}
