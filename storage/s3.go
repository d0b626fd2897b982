package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// maxUploadAttempts bounds the retry loop for one object upload.
const maxUploadAttempts = 3

// S3Config holds configuration for the S3-compatible asset mirror.
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Endpoint  string
	Region    string
}

// S3Mirror copies the latest local assets of a camera to an S3-compatible
// bucket after each successful download. Mirror failures are logged by the
// caller and never affect the refresh cycle.
type S3Mirror struct {
	config   S3Config
	uploader *s3manager.Uploader
}

// NewS3Mirror creates a mirror for the configured bucket.
func NewS3Mirror(config S3Config) (*S3Mirror, error) {
	if config.Region == "" {
		config.Region = "auto"
	}

	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	// Sequential parts on a single connection; the assets are small and the
	// uplink is usually shared with the camera traffic itself.
	uploader := s3manager.NewUploader(sess, func(u *s3manager.Uploader) {
		u.PartSize = 10 * 1024 * 1024
		u.Concurrency = 1
	})

	return &S3Mirror{config: config, uploader: uploader}, nil
}

// MirrorCamera uploads a camera's existing latest assets under
// recordings/<slug>/. Missing previews are skipped silently; a failed video
// upload is returned so the caller can log it.
func (m *S3Mirror) MirrorCamera(recordingsDir, cameraName string) error {
	slug := Slug(cameraName)
	prefix := "recordings/" + slug

	paths := []string{
		VideoPath(recordingsDir, cameraName),
		StillPath(recordingsDir, cameraName),
		AnimatedPath(recordingsDir, cameraName),
	}

	var firstErr error
	for _, localPath := range paths {
		if _, err := os.Stat(localPath); err != nil {
			continue
		}
		remotePath := prefix + "/" + filepath.Base(localPath)
		if err := m.uploadFile(localPath, remotePath); err != nil {
			log.Printf("Failed to mirror %s: %v", localPath, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// uploadFile uploads one file with a bounded retry loop.
func (m *S3Mirror) uploadFile(localPath, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %v", localPath, err)
	}
	defer file.Close()

	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".mp4":
		contentType = "video/mp4"
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".gif":
		contentType = "image/gif"
	}

	var lastErr error
	for attempt := 1; attempt <= maxUploadAttempts; attempt++ {
		if _, err := file.Seek(0, 0); err != nil {
			return fmt.Errorf("failed to seek to beginning of file: %v", err)
		}

		_, lastErr = m.uploader.Upload(&s3manager.UploadInput{
			Bucket:      aws.String(m.config.Bucket),
			Key:         aws.String(remotePath),
			Body:        file,
			ContentType: aws.String(contentType),
		})
		if lastErr == nil {
			return nil
		}

		log.Printf("Upload attempt %d/%d failed for %s: %v", attempt, maxUploadAttempts, localPath, lastErr)
		time.Sleep(time.Duration(1<<uint(attempt)) * time.Second)
	}
	return fmt.Errorf("failed to upload after %d attempts: %v", maxUploadAttempts, lastErr)
}
