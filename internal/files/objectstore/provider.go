// Package objectstore implements fsedit.Provider over an S3-compatible bucket.
//
// Directories are key prefixes ending in "/". Enumeration lists one level with
// Delimiter "/" through the ListObjectsV2 paginator; reads and writes are
// single GetObject and PutObject calls, so a write replaces the object
// atomically. Transient AWS errors are retried with the AWS classifier.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vvka-141/fsedit/internal/logging"
	"github.com/vvka-141/fsedit/internal/retry"
	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// DefaultPageSize is the number of keys requested per ListObjectsV2 call.
const DefaultPageSize = 1000

// Client is the subset of *s3.Client the provider uses.
type Client interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// objectHandle is the capability handle issued by Provider
type objectHandle struct {
	owner *Provider
	key   string
}

// Provider implements fsedit.Provider over bucket/prefix.
// Safe for concurrent use by multiple goroutines.
type Provider struct {
	client   Client
	bucket   string
	prefix   string
	pageSize int32
	logger   fsedit.Logger
	strategy fsedit.BackoffStrategy
}

var _ fsedit.Provider = (*Provider)(nil)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger for retry and skip diagnostics.
func WithLogger(logger fsedit.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPageSize sets MaxKeys for listing. Values below 1 are ignored.
func WithPageSize(n int32) Option {
	return func(p *Provider) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// WithBackoff replaces the retry strategy.
func WithBackoff(strategy fsedit.BackoffStrategy) Option {
	return func(p *Provider) {
		if strategy != nil {
			p.strategy = strategy
		}
	}
}

// New creates a provider granting access to bucket below prefix.
func New(client Client, bucket, prefix string, opts ...Option) *Provider {
	p := &Provider{
		client:   client,
		bucket:   bucket,
		prefix:   normalizePrefix(prefix),
		pageSize: DefaultPageSize,
		logger:   logging.NewNullLogger(),
		strategy: retry.DefaultBackoff(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// normalizePrefix returns "" or a cleaned prefix ending in "/".
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(path.Clean("/"+prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// Bucket returns the bucket name.
func (p *Provider) Bucket() string { return p.bucket }

// Prefix returns the normalized root prefix.
func (p *Provider) Prefix() string { return p.prefix }

func (p *Provider) executor(what string) *retry.Executor {
	return retry.NewExecutor(retry.NewAWSErrorClassifier(), p.strategy).WithLogger(p.logger, what)
}

func (p *Provider) relative(key string) string {
	rel := strings.TrimSuffix(strings.TrimPrefix(key, p.prefix), "/")
	if rel == "" {
		return "."
	}
	return rel
}

func (p *Provider) handle(c *fsedit.Capability, kind fsedit.Kind) (string, error) {
	h, err := fsedit.HandleAs[objectHandle](c, kind)
	if err != nil {
		return "", err
	}
	if h.owner != p {
		return "", fmt.Errorf("%s was issued by another object store: %w", c, fsedit.ErrKindMismatch)
	}
	return h.key, nil
}

func (p *Provider) capability(kind fsedit.Kind, name, key string) *fsedit.Capability {
	return fsedit.NewCapability(kind, name, objectHandle{owner: p, key: key})
}

// PickDirectory grants the root prefix of the bucket.
func (p *Provider) PickDirectory(ctx context.Context) (*fsedit.Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pick directory: %w", fsedit.ErrPickerCancelled)
	}
	if p.bucket == "" {
		return nil, fmt.Errorf("no bucket configured: %w", fsedit.ErrPickerDenied)
	}
	name := p.bucket
	if p.prefix != "" {
		name = path.Base(strings.TrimSuffix(p.prefix, "/"))
	}
	return p.capability(fsedit.KindDirectory, name, p.prefix), nil
}

// Children lists the objects and common prefixes directly below dir, one
// page per step of the sequence.
func (p *Provider) Children(ctx context.Context, dir *fsedit.Capability) iter.Seq2[fsedit.Child, error] {
	key, err := p.handle(dir, fsedit.KindDirectory)
	if err != nil {
		return fsedit.EnumerationError(fmt.Errorf("enumerate: %w: %w", fsedit.ErrEnumerationFailed, err))
	}

	return func(yield func(fsedit.Child, error) bool) {
		fail := func(err error) {
			yield(fsedit.Child{}, fmt.Errorf("enumerate %s: %w: %w", p.relative(key), fsedit.ErrEnumerationFailed, err))
		}

		paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
			Bucket:    aws.String(p.bucket),
			Prefix:    aws.String(key),
			Delimiter: aws.String("/"),
			MaxKeys:   aws.Int32(p.pageSize),
		})
		executor := p.executor("list " + p.relative(key))

		for paginator.HasMorePages() {
			page, err := retry.Do(ctx, executor, func(ctx context.Context) (*s3.ListObjectsV2Output, error) {
				return paginator.NextPage(ctx)
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield(fsedit.Child{}, ctxErr)
					return
				}
				fail(err)
				return
			}

			for _, cp := range page.CommonPrefixes {
				sub := aws.ToString(cp.Prefix)
				name := strings.TrimSuffix(strings.TrimPrefix(sub, key), "/")
				child := fsedit.Child{
					Name:       name,
					Kind:       fsedit.KindDirectory,
					Capability: p.capability(fsedit.KindDirectory, name, sub),
				}
				if !p.emit(ctx, yield, child) {
					return
				}
			}
			for _, obj := range page.Contents {
				objKey := aws.ToString(obj.Key)
				// zero-byte folder markers
				if objKey == key || strings.HasSuffix(objKey, "/") {
					continue
				}
				name := strings.TrimPrefix(objKey, key)
				child := fsedit.Child{
					Name:       name,
					Kind:       fsedit.KindFile,
					Capability: p.capability(fsedit.KindFile, name, objKey),
				}
				if !p.emit(ctx, yield, child) {
					return
				}
			}
		}
	}
}

func (p *Provider) emit(ctx context.Context, yield func(fsedit.Child, error) bool, child fsedit.Child) bool {
	if err := ctx.Err(); err != nil {
		yield(fsedit.Child{}, err)
		return false
	}
	return yield(child, nil)
}

// ReadText downloads an object and checks that it is UTF-8 text.
func (p *Provider) ReadText(ctx context.Context, file *fsedit.Capability) (string, error) {
	key, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return "", fmt.Errorf("read: %w: %w", fsedit.ErrReadFailed, err)
	}
	rel := p.relative(key)

	data, err := retry.Do(ctx, p.executor("get "+rel), func(ctx context.Context) ([]byte, error) {
		out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(p.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return "", fmt.Errorf("read %s: %w: %w", rel, fsedit.ErrReadFailed, fsedit.ErrNotFound)
		}
		return "", fmt.Errorf("read %s: %w: %w", rel, fsedit.ErrReadFailed, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: %w: content is not valid UTF-8", rel, fsedit.ErrReadFailed)
	}
	return string(data), nil
}

// WriteText uploads content as the new version of the object.
func (p *Provider) WriteText(ctx context.Context, file *fsedit.Capability, content string) error {
	key, err := p.handle(file, fsedit.KindFile)
	if err != nil {
		return fmt.Errorf("write: %w: %w", fsedit.ErrWriteFailed, err)
	}
	rel := p.relative(key)

	err = p.executor("put "+rel).Execute(ctx, func(ctx context.Context) error {
		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(p.bucket),
			Key:           aws.String(key),
			Body:          strings.NewReader(content),
			ContentLength: aws.Int64(int64(len(content))),
			ContentType:   aws.String(contentType(key)),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", rel, fsedit.ErrWriteFailed, err)
	}
	return nil
}

func contentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// DisplayName returns the base name of the entry.
func (p *Provider) DisplayName(c *fsedit.Capability) string { return c.Name() }

// Kind returns the kind the capability was issued for.
func (p *Provider) Kind(c *fsedit.Capability) fsedit.Kind { return c.Kind() }
