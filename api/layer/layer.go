package layer

import (
	"context"
	"errors"
	"fmt"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/policy"
	"go.uber.org/zap"
)

// Metadata items attached to a resource.
const (
	ItemACL    = "acl"
	ItemPolicy = "policy"
	// ItemTmpACL carries the ACL of an object being assembled by a
	// multipart upload until the upload completes.
	ItemTmpACL = "tmpacl"
)

// ErrNotFound is returned by a MetadataStore when the item is absent.
var ErrNotFound = errors.New("metadata not found")

// Resource addresses a bucket or an object within a bucket.
type Resource struct {
	Bucket string
	Object string
}

// Kind returns the policy resource kind of r.
func (r Resource) Kind() string {
	if r.Object != "" {
		return policy.ResourceObject
	}
	return policy.ResourceContainer
}

// SysmetaHeader returns the backend metadata header name holding the
// given item for r.
func (r Resource) SysmetaHeader(item string) string {
	if r.Object != "" {
		return "x-object-sysmeta-s3api-" + item
	}
	return "x-container-sysmeta-s3api-" + item
}

// MetadataStore persists raw subresource metadata in the storage
// backend.
type MetadataStore interface {
	Get(ctx context.Context, res Resource, item string) ([]byte, error)
	Put(ctx context.Context, res Resource, item string, value []byte) error
	Delete(ctx context.Context, res Resource, item string) error
}

// Config carries the authorization switches of the gateway.
type Config struct {
	// ACLEnforced enables ACL and bucket policy evaluation. With it off
	// every permission check passes.
	ACLEnforced bool
	// AllowNoOwner treats resources without owner metadata as public.
	AllowNoOwner bool
}

// Layer reads and writes ACLs and bucket policies through a
// MetadataStore.
type Layer struct {
	log   *zap.Logger
	store MetadataStore
	cfg   Config
}

// NewLayer creates a Layer on top of the given store.
func NewLayer(log *zap.Logger, store MetadataStore, cfg Config) *Layer {
	return &Layer{log: log, store: store, cfg: cfg}
}

// Config returns the authorization switches the layer was built with.
func (l *Layer) Config() Config { return l.cfg }

// GetACL fetches the ACL of a resource. A resource without ACL metadata
// gets a blank ACL whose behavior is governed by the AllowNoOwner
// switch.
func (l *Layer) GetACL(ctx context.Context, res Resource) (*acl.ACL, error) {
	return l.getACLItem(ctx, res, ItemACL)
}

// PutACL stores the ACL of a resource.
func (l *Layer) PutACL(ctx context.Context, res Resource, a *acl.ACL) error {
	return l.putACLItem(ctx, res, ItemACL, a)
}

// GetTmpACL fetches the ACL stashed for an in-flight multipart upload.
func (l *Layer) GetTmpACL(ctx context.Context, res Resource) (*acl.ACL, error) {
	return l.getACLItem(ctx, res, ItemTmpACL)
}

// PutTmpACL stashes the ACL for an in-flight multipart upload.
func (l *Layer) PutTmpACL(ctx context.Context, res Resource, a *acl.ACL) error {
	return l.putACLItem(ctx, res, ItemTmpACL, a)
}

func (l *Layer) getACLItem(ctx context.Context, res Resource, item string) (*acl.ACL, error) {
	raw, err := l.store.Get(ctx, res, item)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return blankACL(l.cfg), nil
		}
		return nil, fmt.Errorf("get %s of %v: %w", item, res, err)
	}
	a, err := DecodeACL(raw, l.cfg.ACLEnforced, l.cfg.AllowNoOwner)
	if err != nil {
		l.log.Error("could not decode resource acl",
			zap.String("bucket", res.Bucket),
			zap.String("object", res.Object),
			zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (l *Layer) putACLItem(ctx context.Context, res Resource, item string, a *acl.ACL) error {
	raw, err := EncodeACL(a)
	if err != nil {
		return fmt.Errorf("encode %s of %v: %w", item, res, err)
	}
	return l.store.Put(ctx, res, item, raw)
}

// GetBucketPolicy fetches the policy of a bucket. A bucket without a
// policy yields nil.
func (l *Layer) GetBucketPolicy(ctx context.Context, bucket string) (*policy.BucketPolicy, error) {
	res := Resource{Bucket: bucket}
	raw, err := l.store.Get(ctx, res, ItemPolicy)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get policy of %q: %w", bucket, err)
	}
	p, err := DecodePolicy(raw, l.cfg.ACLEnforced, l.cfg.AllowNoOwner)
	if err != nil {
		l.log.Error("could not decode bucket policy",
			zap.String("bucket", bucket),
			zap.Error(err))
		return nil, err
	}
	return p, nil
}

// PutBucketPolicy stores the policy of a bucket.
func (l *Layer) PutBucketPolicy(ctx context.Context, bucket string, p *policy.BucketPolicy) error {
	raw, err := EncodePolicy(p)
	if err != nil {
		return fmt.Errorf("encode policy of %q: %w", bucket, err)
	}
	return l.store.Put(ctx, Resource{Bucket: bucket}, ItemPolicy, raw)
}

// DeleteBucketPolicy removes the policy of a bucket. ErrNotFound is
// returned when the bucket has none.
func (l *Layer) DeleteBucketPolicy(ctx context.Context, bucket string) error {
	return l.store.Delete(ctx, Resource{Bucket: bucket}, ItemPolicy)
}

func blankACL(cfg Config) *acl.ACL {
	return acl.NewACL(acl.Owner{}, nil, cfg.ACLEnforced, cfg.AllowNoOwner)
}
