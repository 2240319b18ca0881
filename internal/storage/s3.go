package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"vfs-go/internal/vfs"
)

// PresignExpiry is how long presigned GET URLs stay valid.
const PresignExpiry = time.Hour

// S3Config holds S3 connection settings.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-compatible endpoint (MinIO); path-style addressing is used when set
	AccessKey string
	SecretKey string
	Prefix    string // key prefix prepended to every physical path
	PublicURL string // base URL objects are publicly served from; presigned URLs when empty
	ACL       string // canned ACL applied on upload, e.g. "public-read"
}

// S3Backend stores objects in an S3 bucket. Physical paths map to keys
// below the configured prefix; prefixes are implicit so folders need no
// physical counterpart.
type S3Backend struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	prefix    string
	publicURL string
	acl       types.ObjectCannedACL
}

// NewS3Backend creates an S3 backend. No request is made to the bucket.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		}
	})

	return &S3Backend{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		acl:       types.ObjectCannedACL(cfg.ACL),
	}, nil
}

func (b *S3Backend) Kind() string { return "s3" }

// objectKey maps a physical path to the bucket key.
func (b *S3Backend) objectKey(physicalPath string) string {
	k := key(physicalPath)
	if b.prefix == "" {
		return k
	}
	return path.Join(b.prefix, k)
}

// physicalPath maps a bucket key back to a physical path.
func (b *S3Backend) physicalPath(objectKey string) string {
	if b.prefix == "" {
		return objectKey
	}
	return strings.TrimPrefix(strings.TrimPrefix(objectKey, b.prefix), "/")
}

func (b *S3Backend) Upload(ctx context.Context, r io.Reader, size int64, physicalPath string, mimeType string) (*vfs.UploadResult, error) {
	k := key(physicalPath)
	if k == "" {
		return nil, vfs.NewError(vfs.KindBackendWrite, "empty object path")
	}

	counter := &countingReader{r: r}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(k)),
		Body:        counter,
		ContentType: aws.String(mimeType),
	}
	if b.acl != "" {
		input.ACL = b.acl
	}
	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return nil, vfs.WrapError(vfs.KindBackendWrite, err, "put object %s", b.objectKey(k))
	}
	if size >= 0 && counter.n != size {
		// Best effort: the object has no record and nothing refers to it.
		b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(b.objectKey(k)),
		})
		return nil, vfs.NewError(vfs.KindBackendWrite, "put object %s: size mismatch: expected %d bytes, got %d",
			b.objectKey(k), size, counter.n)
	}

	publicURL, err := b.URL(ctx, k)
	if err != nil {
		publicURL = ""
	}
	return &vfs.UploadResult{ResolvedPath: k, PublicURL: publicURL, Size: counter.n}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// isNotFound reports whether err is an S3 404.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}

func (b *S3Backend) head(ctx context.Context, physicalPath string) (*s3.HeadObjectOutput, error) {
	return b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(physicalPath)),
	})
}

// Delete checks the object exists first since DeleteObject succeeds for
// missing keys.
func (b *S3Backend) Delete(ctx context.Context, physicalPath string) error {
	k := b.objectKey(physicalPath)
	if _, err := b.head(ctx, physicalPath); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", vfs.ErrObjectNotFound, k)
		}
		return vfs.WrapError(vfs.KindBackendDelete, err, "head object %s", k)
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
	})
	if err != nil {
		return vfs.WrapError(vfs.KindBackendDelete, err, "delete object %s", k)
	}
	return nil
}

func (b *S3Backend) Exists(ctx context.Context, physicalPath string) bool {
	_, err := b.head(ctx, physicalPath)
	return err == nil
}

// URL returns the public URL of the object, or a presigned GET URL valid
// for PresignExpiry when no public base URL is configured.
func (b *S3Backend) URL(ctx context.Context, physicalPath string) (string, error) {
	k := b.objectKey(physicalPath)
	if b.publicURL != "" {
		return b.publicURL + "/" + escapePath(k), nil
	}
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(k),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", k, err)
	}
	return req.URL, nil
}

// List returns the objects and common prefixes directly below prefix.
func (b *S3Backend) List(ctx context.Context, prefix string) ([]vfs.ObjectInfo, error) {
	dir := b.objectKey(prefix)
	if dir != "" {
		dir += "/"
	}

	objects := []vfs.ObjectInfo{}
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", dir, err)
		}
		for _, p := range page.CommonPrefixes {
			k := strings.TrimSuffix(aws.ToString(p.Prefix), "/")
			objects = append(objects, vfs.ObjectInfo{
				Name:        path.Base(k),
				Path:        b.physicalPath(k),
				IsDirectory: true,
			})
		}
		for _, obj := range page.Contents {
			k := aws.ToString(obj.Key)
			info := vfs.ObjectInfo{
				Name:         path.Base(k),
				Path:         b.physicalPath(k),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			}
			info.URL, _ = b.URL(ctx, info.Path)
			objects = append(objects, info)
		}
	}
	return objects, nil
}

// Compile-time check that S3Backend implements vfs.StorageBackend
var _ vfs.StorageBackend = (*S3Backend)(nil)
