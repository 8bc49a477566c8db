// Package authz decides whether a client request may reach the storage
// backend. Each controller kind has its own strategy describing which
// ACL permission or bucket policy action every backend request needs.
package authz

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
	"go.uber.org/zap"
)

// ControllerKind selects the authorization strategy of a request.
type ControllerKind int

// Controller kinds recognized by the authorizer.
const (
	ControllerBucket ControllerKind = iota
	ControllerObject
	ControllerMultiObjectDelete
	ControllerACL
	ControllerPolicy
	ControllerPart
	ControllerUploads
	ControllerUpload
)

// Request carries everything the authorizer needs to know about a
// client request.
type Request struct {
	Controller ControllerKind
	// Method is the client verb, which may differ from the verbs of the
	// backend requests made on its behalf.
	Method string
	Bucket string
	Object string
	// User is the canonical id of the authenticated account.
	User string
	// UploadID addresses an in-flight multipart upload.
	UploadID string
	Header   http.Header
	Query    url.Values
	// Body is the request payload for operations that carry a
	// subresource document.
	Body []byte

	// aclDone makes repeated upload checks within one request cheap.
	aclDone bool
}

// Subresource returns the subresource addressed by the request query,
// empty for plain requests.
func (r *Request) Subresource() string {
	for _, q := range []string{"acl", "policy", "versioning", "uploads", "uploadId"} {
		if r.Query.Has(q) {
			return q
		}
	}
	return ""
}

// Strategy authorizes the backend request with the given verb made on
// behalf of the client request.
type Strategy interface {
	Authorize(ctx context.Context, req *Request, verb string) error
}

// Authorizer dispatches requests to per-controller strategies.
type Authorizer struct {
	log        *zap.Logger
	layer      *layer.Layer
	strategies map[ControllerKind]Strategy
	generic    Strategy
}

// New creates an Authorizer with the full strategy registry.
func New(log *zap.Logger, l *layer.Layer) *Authorizer {
	a := &Authorizer{log: log, layer: l}
	a.generic = &genericStrategy{a}
	a.strategies = map[ControllerKind]Strategy{
		ControllerBucket:            &bucketStrategy{a},
		ControllerObject:            &objectStrategy{a},
		ControllerMultiObjectDelete: &multiDeleteStrategy{a},
		ControllerACL:               &aclStrategy{a},
		ControllerPolicy:            &policyStrategy{a},
		ControllerPart:              &multipartStrategy{a, multipartPart},
		ControllerUploads:           &multipartStrategy{a, multipartUploads},
		ControllerUpload:            &multipartStrategy{a, multipartUpload},
	}
	return a
}

// Authorize checks a backend request. An empty verb stands for the
// client verb itself.
func (a *Authorizer) Authorize(ctx context.Context, req *Request, verb string) error {
	if verb == "" {
		verb = req.Method
	}
	strategy, ok := a.strategies[req.Controller]
	if !ok {
		strategy = a.generic
	}
	return strategy.Authorize(ctx, req, verb)
}

// check is the general permission check behind most strategies. It
// resolves the required permission from the rule table unless override
// is given, then evaluates the bucket policy when one exists and the
// resource ACL otherwise. The fetched resource ACL is returned for
// callers that need its owner.
func (a *Authorizer) check(ctx context.Context, req *Request, verb, bucket, object string, override acl.Permission) (*acl.ACL, error) {
	if bucket == "" {
		return nil, nil
	}

	res := layer.Resource{Bucket: bucket, Object: object}
	permission := override
	if permission == "" {
		r, ok := lookupRule(req.Method, verb, res.Kind())
		if !ok {
			a.log.Error("no permission to be checked exists",
				zap.String("method", req.Method),
				zap.String("backend_verb", verb),
				zap.String("resource", res.Kind()))
			return nil, fmt.Errorf("no acl rule for %s %s %s", req.Method, verb, res.Kind())
		}
		if r.resource != "" && r.resource != res.Kind() {
			res = layer.Resource{Bucket: bucket}
		}
		permission = r.permission
	}

	resourceACL, err := a.layer.GetACL(ctx, res)
	if err != nil {
		return nil, err
	}

	bucketPolicy, err := a.layer.GetBucketPolicy(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if bucketPolicy != nil {
		ownerACL := resourceACL
		if res.Object != "" {
			if ownerACL, err = a.layer.GetACL(ctx, layer.Resource{Bucket: bucket}); err != nil {
				return nil, err
			}
		}
		err = bucketPolicy.CheckPermission(req.User, ownerACL.Owner.ID,
			req.Method, req.Bucket, req.Object, req.Subresource())
		if err != nil {
			a.log.Debug("permission denied by bucket policy",
				zap.String("user", req.User),
				zap.String("bucket", bucket),
				zap.Error(err))
			return nil, err
		}
		return resourceACL, nil
	}

	if err = resourceACL.CheckPermission(req.User, permission); err != nil {
		a.log.Debug("permission denied",
			zap.String("user", req.User),
			zap.String("bucket", bucket),
			zap.String("object", object),
			zap.String("permission", string(permission)),
			zap.Error(err))
		return nil, err
	}
	return resourceACL, nil
}

// parseACL extracts an ACL from the grant headers or the XML body of an
// ACL request. Exactly one of the two sources must be present.
func (a *Authorizer) parseACL(req *Request, bucketOwner acl.Owner, objectOwner *acl.Owner) (*acl.ACL, error) {
	cfg := a.layer.Config()
	parsed, err := acl.FromHeaders(req.Header, bucketOwner, objectOwner,
		false, cfg.ACLEnforced, cfg.AllowNoOwner)
	if err != nil {
		return nil, err
	}

	if parsed == nil {
		if len(req.Body) == 0 {
			return nil, s3errors.GetAPIError(s3errors.ErrMissingSecurityHeader)
		}
		return acl.ParseDocument(req.Body, cfg.ACLEnforced, cfg.AllowNoOwner)
	}

	if len(req.Body) != 0 {
		// specifying grants with both headers and xml is not allowed
		return nil, s3errors.GetAPIError(s3errors.ErrUnexpectedContent)
	}
	return parsed, nil
}
