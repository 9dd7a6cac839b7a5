package export

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/mealkeeper/internal/netx"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// S3Config addresses the export bucket. Endpoint is set for S3-compatible
// stores such as MinIO; AccessKey/SecretKey override the default AWS
// credential chain.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// S3Exporter presigns a PUT for each document and uploads it over HTTP.
type S3Exporter struct {
	cfg        S3Config
	httpClient *http.Client
	now        func() time.Time
}

func NewS3Exporter(cfg S3Config, httpClient *http.Client) *S3Exporter {
	if cfg.Prefix == "" {
		cfg.Prefix = "exports"
	}
	return &S3Exporter{cfg: cfg, httpClient: httpClient, now: time.Now}
}

func (e *S3Exporter) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(e.cfg.Region)}
	if e.cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(e.cfg.AccessKey, e.cfg.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if e.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(e.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

// objectKey is e.g. "exports/alice/2024/05/01/meals-2024-05-01-<uuid>.json".
func (e *S3Exporter) objectKey(d Day) string {
	at := e.now().UTC()
	name := d.FileName()
	name = name[:len(name)-len(path.Ext(name))] + "-" + uuid.NewString() + ".json"
	return path.Join(e.cfg.Prefix, d.Username, at.Format("2006/01/02"), name)
}

func (e *S3Exporter) Export(ctx context.Context, d Day) (string, error) {
	if e.cfg.Bucket == "" {
		return "", fmt.Errorf("export bucket is not configured")
	}
	body, err := Encode(d)
	if err != nil {
		return "", err
	}

	pc, err := e.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := e.cfg.Bucket
	key := e.objectKey(d)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String("application/json"),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := netx.UploadToPresignedURL(ctx, e.httpClient, req.URL, body, "application/json"); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	return "s3://" + bucket + "/" + key, nil
}
