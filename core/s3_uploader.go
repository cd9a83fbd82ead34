package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader ships generated workbooks to S3.
type S3Uploader struct {
	Client *s3.Client
	Bucket string
	Prefix string
}

// NewS3Uploader creates a new uploader.
func NewS3Uploader(cfg aws.Config, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}
}

// UploadWorkbook uploads a single generated workbook under the prefix,
// keyed by its base name.
func (u *S3Uploader) UploadWorkbook(localPath string) error {
	key := u.key(filepath.Base(localPath))
	return u.UploadFile(localPath, key)
}

// UploadDirectory walks the local directory and uploads every file,
// preserving the relative layout under the prefix.
func (u *S3Uploader) UploadDirectory(localDir string) error {
	return filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(localDir, path)
		if err != nil {
			return err
		}
		return u.UploadFile(path, u.key(filepath.ToSlash(relPath)))
	})
}

// key builds an S3 object key, normalized to forward slashes.
func (u *S3Uploader) key(relPath string) string {
	key := filepath.Join(u.Prefix, relPath)
	key = strings.ReplaceAll(key, "\\", "/")
	return strings.TrimPrefix(key, "/")
}

// UploadFile uploads a single file to S3.
func (u *S3Uploader) UploadFile(localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer file.Close()

	slog.Info("Uploading to S3", "local", localPath, "bucket", u.Bucket, "key", key)

	_, err = u.Client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}
