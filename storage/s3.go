package storage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"tutorhub_go/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// StorageService uploads user files (avatars, payment receipts) to S3.
type StorageService struct {
	s3Client *s3.S3
	bucket   string
}

var receiptExtensions = []string{"jpg", "jpeg", "png", "webp", "pdf"}

// NewStorageService creates a new storage service
func NewStorageService() (*StorageService, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AppConfig.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			config.AppConfig.AWSAccessKeyID,
			config.AppConfig.AWSSecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %v", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		bucket:   config.AppConfig.S3BucketName,
	}, nil
}

// UploadAvatar stores a profile image, converting to WebP when possible.
func (s *StorageService) UploadAvatar(file *multipart.FileHeader, userID uint) (string, error) {
	if !s.isImageFile(file.Filename) {
		return "", fmt.Errorf("avatar must be an image file")
	}
	return s.uploadFile(file, "avatars", userID, true)
}

// UploadReceipt stores a payment receipt (image or PDF).
func (s *StorageService) UploadReceipt(file *multipart.FileHeader, userID uint) (string, error) {
	ext := s.getFileExtension(file.Filename)
	allowed := false
	for _, e := range receiptExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("receipt must be one of: %s", strings.Join(receiptExtensions, ", "))
	}
	return s.uploadFile(file, "receipts", userID, false)
}

// uploadFile uploads a file to S3 under folder/userID/yyyy/mm/dd/ and
// returns its public URL.
func (s *StorageService) uploadFile(file *multipart.FileHeader, folder string, userID uint, convertImages bool) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	finalBytes := fileBytes
	finalExtension := s.getFileExtension(file.Filename)

	if convertImages && s.isImageFile(file.Filename) {
		webpBytes, converted := s.convertToWebP(fileBytes)
		if converted {
			finalBytes = webpBytes
			finalExtension = "webp"
		}
	}

	now := time.Now()
	randomID := uuid.New().String()[:16]
	key := fmt.Sprintf("%s/%d/%d/%02d/%02d/%s.%s",
		folder,
		userID,
		now.Year(),
		now.Month(),
		now.Day(),
		randomID,
		finalExtension,
	)

	_, err = s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(finalBytes),
		ContentType: aws.String(s.getContentType(finalExtension)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.bucket,
		config.AppConfig.AWSRegion,
		key,
	), nil
}

// DeleteFile deletes a file from S3 given its public URL
func (s *StorageService) DeleteFile(fileURL string) error {
	key := s.extractKeyFromURL(fileURL)
	if key == "" {
		return fmt.Errorf("invalid file URL")
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err
}

func (s *StorageService) isImageFile(filename string) bool {
	switch s.getFileExtension(filename) {
	case "jpg", "jpeg", "png", "gif", "bmp", "webp":
		return true
	}
	return false
}

func (s *StorageService) getFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 1 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// convertToWebP converts an image using the external cwebp tool when it is
// installed. The second return value reports whether conversion happened;
// on any failure the original bytes are kept.
func (s *StorageService) convertToWebP(imageBytes []byte) ([]byte, bool) {
	cwebpPath, err := exec.LookPath("cwebp")
	if err != nil {
		return imageBytes, false
	}

	inFile, err := os.CreateTemp("", "img-input-*")
	if err != nil {
		return imageBytes, false
	}
	defer func() {
		inFile.Close()
		os.Remove(inFile.Name())
	}()

	if _, err := inFile.Write(imageBytes); err != nil {
		return imageBytes, false
	}

	outFile, err := os.CreateTemp("", "img-out-*.webp")
	if err != nil {
		return imageBytes, false
	}
	outFile.Close()
	defer os.Remove(outFile.Name())

	cmd := exec.Command(cwebpPath, "-q", "80", inFile.Name(), "-o", outFile.Name())
	if err := cmd.Run(); err != nil {
		return imageBytes, false
	}

	outBytes, err := os.ReadFile(outFile.Name())
	if err != nil {
		return imageBytes, false
	}

	return outBytes, true
}

func (s *StorageService) getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case "webp":
		return "image/webp"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// extractKeyFromURL extracts the S3 key from a public object URL
func (s *StorageService) extractKeyFromURL(url string) string {
	parts := strings.Split(url, ".amazonaws.com/")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}
