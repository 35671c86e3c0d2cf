package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"recipe-share/domain"
	"recipe-share/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

var AllowImage = []string{"image/jpeg", "image/png", "image/webp"}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type (
	AwsS3 interface {
		// UploadFile stores file under folder/fileName and returns the object key.
		UploadFile(ctx context.Context, fileName string, file *multipart.FileHeader, folder string, allowTypes ...string) (string, error)
		UpdateFile(ctx context.Context, objectKey string, file *multipart.FileHeader, allowTypes ...string) (string, error)
		DeleteFile(ctx context.Context, objectKey string) error
		GetPublicLinkKey(objectKey string) string
		GetObjectKeyFromLink(link string) string
	}

	// objectAPI is the part of *s3.Client the store calls.
	objectAPI interface {
		PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
		DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	}

	awsS3 struct {
		client   objectAPI
		bucket   string
		baseURL  string
		maxBytes int64
		logger   *zap.Logger
	}
)

func NewAwsS3(ctx context.Context, logger *zap.Logger) (AwsS3, error) {
	region := utils.GetConfig("AWS_S3_REGION")
	bucket := utils.GetConfig("AWS_S3_BUCKET")
	endpoint := utils.GetConfig("AWS_S3_ENDPOINT")

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			utils.GetConfig("AWS_ACCESS_KEY"),
			utils.GetConfig("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			// S3-compatible stores (MinIO) want path-style addressing
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		baseURL = strings.TrimRight(endpoint, "/") + "/" + bucket
	}

	return newAwsS3(client, bucket, baseURL, logger), nil
}

func newAwsS3(client objectAPI, bucket, baseURL string, logger *zap.Logger) *awsS3 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &awsS3{
		client:   client,
		bucket:   bucket,
		baseURL:  baseURL,
		maxBytes: domain.MaxImageSize,
		logger:   logger,
	}
}

func (a *awsS3) UploadFile(ctx context.Context, fileName string, file *multipart.FileHeader, folder string, allowTypes ...string) (string, error) {
	contentType, body, err := a.open(file, allowTypes)
	if err != nil {
		return "", err
	}
	defer body.Close()

	objectKey := path.Join(folder, fileName+extensions[contentType])
	if err := a.put(ctx, objectKey, contentType, body); err != nil {
		return "", err
	}
	return objectKey, nil
}

func (a *awsS3) UpdateFile(ctx context.Context, objectKey string, file *multipart.FileHeader, allowTypes ...string) (string, error) {
	contentType, body, err := a.open(file, allowTypes)
	if err != nil {
		return "", err
	}
	defer body.Close()

	// keep the key stable unless the format changed
	newKey := strings.TrimSuffix(objectKey, path.Ext(objectKey)) + extensions[contentType]
	if err := a.put(ctx, newKey, contentType, body); err != nil {
		return "", err
	}
	if newKey != objectKey {
		// the new object is already live, a stale one only costs storage
		if err := a.DeleteFile(ctx, objectKey); err != nil {
			a.logger.Warn("old object left behind after format change",
				zap.String("old_key", objectKey),
				zap.String("new_key", newKey),
				zap.Error(err),
			)
		}
	}
	return newKey, nil
}

func (a *awsS3) DeleteFile(ctx context.Context, objectKey string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", objectKey, err)
	}
	return nil
}

func (a *awsS3) GetPublicLinkKey(objectKey string) string {
	return a.baseURL + "/" + objectKey
}

func (a *awsS3) GetObjectKeyFromLink(link string) string {
	prefix := a.baseURL + "/"
	if !strings.HasPrefix(link, prefix) {
		return ""
	}
	return strings.TrimPrefix(link, prefix)
}

func (a *awsS3) put(ctx context.Context, objectKey, contentType string, body io.Reader) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return nil
}

func (a *awsS3) open(file *multipart.FileHeader, allowTypes []string) (string, multipart.File, error) {
	contentType, err := CheckImage(file, a.maxBytes, allowTypes...)
	if err != nil {
		return "", nil, err
	}
	body, err := file.Open()
	if err != nil {
		return "", nil, err
	}
	return contentType, body, nil
}

// CheckImage sniffs the upload's content and enforces size and type limits.
func CheckImage(file *multipart.FileHeader, maxBytes int64, allowTypes ...string) (string, error) {
	if file == nil {
		return "", domain.ErrInvalidImageFormat
	}
	if maxBytes > 0 && file.Size > maxBytes {
		return "", domain.ErrImageTooLarge
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if len(allowTypes) > 0 && !mimetype.EqualsAny(mtype.String(), allowTypes...) {
		return "", domain.ErrInvalidImageFormat
	}
	return mtype.String(), nil
}
