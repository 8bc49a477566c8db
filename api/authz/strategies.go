package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
	"github.com/idrive-online-backup/swift-s3-gw/api/policy"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

// genericStrategy applies the plain rule-table check. It backs every
// controller kind without a dedicated strategy.
type genericStrategy struct {
	a *Authorizer
}

func (s *genericStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	_, err := s.a.check(ctx, req, verb, req.Bucket, req.Object, "")
	return err
}

// bucketStrategy authorizes bucket requests. Requests against segment
// buckets of multipart uploads skip the check since cleanup of those
// relies on listing results only.
type bucketStrategy struct {
	a *Authorizer
}

func (s *bucketStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "DELETE":
		if strings.HasSuffix(req.Bucket, MultipartSuffix) {
			return nil
		}
		_, err := s.a.check(ctx, req, "DELETE", req.Bucket, "", "")
		return err
	case "HEAD":
		if req.Method == "DELETE" {
			_, err := s.a.check(ctx, req, "DELETE", req.Bucket, "", "")
			return err
		}
		_, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", "")
		return err
	case "GET":
		if req.Method == "DELETE" && strings.HasSuffix(req.Bucket, MultipartSuffix) {
			return nil
		}
		_, err := s.a.check(ctx, req, "GET", req.Bucket, "", "")
		return err
	case "PUT":
		return s.put(ctx, req)
	}
	_, err := s.a.check(ctx, req, verb, req.Bucket, req.Object, "")
	return err
}

// put stores the ACL of a freshly created bucket. Without ACL headers
// the bucket gets the private ACL owned by the requester.
func (s *bucketStrategy) put(ctx context.Context, req *Request) error {
	cfg := s.a.layer.Config()
	owner := acl.NewOwner(req.User)
	reqACL, err := acl.FromHeaders(req.Header, owner, nil, true, cfg.ACLEnforced, cfg.AllowNoOwner)
	if err != nil {
		return err
	}
	return s.a.layer.PutACL(ctx, layer.Resource{Bucket: req.Bucket}, reqACL)
}

// objectStrategy authorizes object requests.
type objectStrategy struct {
	a *Authorizer
}

func (s *objectStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "HEAD":
		// no object permission needed to delete it, the bucket check
		// happens on the DELETE itself
		if req.Method == "DELETE" {
			return nil
		}
		_, err := s.a.check(ctx, req, "HEAD", req.Bucket, req.Object, "")
		return err
	case "PUT":
		return s.put(ctx, req)
	}
	_, err := s.a.check(ctx, req, verb, req.Bucket, req.Object, "")
	return err
}

// put checks bucket write access and stores the ACL of the new object.
// The object ACL keeps the bucket owner so bucket-owner canned ACLs
// resolve against the right account.
func (s *objectStrategy) put(ctx context.Context, req *Request) error {
	bucketACL, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", "")
	if err != nil {
		return err
	}
	if bucketACL == nil {
		return s3errors.GetAPIError(s3errors.ErrNoSuchBucket)
	}

	cfg := s.a.layer.Config()
	objectOwner := acl.NewOwner(req.User)
	reqACL, err := acl.FromHeaders(req.Header, bucketACL.Owner, &objectOwner,
		true, cfg.ACLEnforced, cfg.AllowNoOwner)
	if err != nil {
		return err
	}
	return s.a.layer.PutACL(ctx, layer.Resource{Bucket: req.Bucket, Object: req.Object}, reqACL)
}

// multiDeleteStrategy authorizes multi object delete requests. Only the
// write permission on the bucket is required, per-object checks are
// skipped.
type multiDeleteStrategy struct {
	a *Authorizer
}

func (s *multiDeleteStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "HEAD":
		if req.Object == "" {
			_, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", "")
			return err
		}
		return nil
	case "DELETE":
		return nil
	}
	_, err := s.a.check(ctx, req, verb, req.Bucket, req.Object, "")
	return err
}

// aclStrategy authorizes ACL subresource requests and applies ACL
// updates.
type aclStrategy struct {
	a *Authorizer
}

func (s *aclStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "GET":
		_, err := s.a.check(ctx, req, "HEAD", req.Bucket, req.Object, acl.PermissionReadACP)
		return err
	case "PUT":
		if req.Object != "" {
			return s.putObjectACL(ctx, req)
		}
		return s.putBucketACL(ctx, req)
	}
	_, err := s.a.check(ctx, req, verb, req.Bucket, req.Object, "")
	return err
}

func (s *aclStrategy) putObjectACL(ctx context.Context, req *Request) error {
	bucketACL, err := s.a.layer.GetACL(ctx, layer.Resource{Bucket: req.Bucket})
	if err != nil {
		return err
	}
	objectACL, err := s.a.check(ctx, req, "HEAD", req.Bucket, req.Object, acl.PermissionWriteACP)
	if err != nil {
		return err
	}

	reqACL, err := s.a.parseACL(req, bucketACL.Owner, &objectACL.Owner)
	if err != nil {
		return err
	}
	// the owner of the resource never changes on an acl update
	if err = objectACL.CheckOwner(reqACL.Owner.ID); err != nil {
		return err
	}
	return s.a.layer.PutACL(ctx, layer.Resource{Bucket: req.Bucket, Object: req.Object}, reqACL)
}

func (s *aclStrategy) putBucketACL(ctx context.Context, req *Request) error {
	bucketACL, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", acl.PermissionWriteACP)
	if err != nil {
		return err
	}

	reqACL, err := s.a.parseACL(req, bucketACL.Owner, nil)
	if err != nil {
		return err
	}
	if err = bucketACL.CheckOwner(reqACL.Owner.ID); err != nil {
		return err
	}
	return s.a.layer.PutACL(ctx, layer.Resource{Bucket: req.Bucket}, reqACL)
}

// policyStrategy authorizes bucket policy subresource requests and
// applies policy updates.
type policyStrategy struct {
	a *Authorizer
}

func (s *policyStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "GET":
		_, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", acl.PermissionReadACP)
		return err
	case "PUT":
		return s.put(ctx, req)
	case "DELETE":
		return s.delete(ctx, req)
	}
	_, err := s.a.check(ctx, req, verb, req.Bucket, req.Object, "")
	return err
}

func (s *policyStrategy) put(ctx context.Context, req *Request) error {
	if _, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", ""); err != nil {
		return err
	}

	cfg := s.a.layer.Config()
	p, err := policy.FromDocument(req.Body, cfg.ACLEnforced, cfg.AllowNoOwner)
	if err != nil {
		return s3errors.GetAPIError(s3errors.ErrMalformedPolicy)
	}
	return s.a.layer.PutBucketPolicy(ctx, req.Bucket, p)
}

func (s *policyStrategy) delete(ctx context.Context, req *Request) error {
	if _, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", ""); err != nil {
		return err
	}
	if err := s.a.layer.DeleteBucketPolicy(ctx, req.Bucket); err != nil {
		if errors.Is(err, layer.ErrNotFound) {
			return s3errors.GetAPIError(s3errors.ErrNoSuchBucketPolicy)
		}
		return err
	}
	return nil
}

type multipartCategory int

const (
	multipartPart multipartCategory = iota
	multipartUploads
	multipartUpload
)

// multipartStrategy authorizes multipart upload requests. Multipart
// controllers check access against the base bucket once and skip verbs
// they do not define.
type multipartStrategy struct {
	a        *Authorizer
	category multipartCategory
}

func (s *multipartStrategy) Authorize(ctx context.Context, req *Request, verb string) error {
	switch s.category {
	case multipartPart:
		return s.authorizePart(ctx, req, verb)
	case multipartUploads:
		return s.authorizeUploads(ctx, req, verb)
	case multipartUpload:
		return s.authorizeUpload(ctx, req, verb)
	}
	return fmt.Errorf("unknown multipart category %d", s.category)
}

func (s *multipartStrategy) authorizePart(ctx context.Context, req *Request, verb string) error {
	if verb != "HEAD" {
		return nil
	}
	if strings.HasSuffix(req.Bucket, MultipartSuffix) {
		base := strings.TrimSuffix(req.Bucket, MultipartSuffix)
		_, err := s.a.check(ctx, req, "HEAD", base, "", "")
		return err
	}
	// copy source check
	_, err := s.a.check(ctx, req, "HEAD", req.Bucket, req.Object, "")
	return err
}

func (s *multipartStrategy) authorizeUploads(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "GET":
		_, err := s.a.check(ctx, req, "GET", req.Bucket, "", "")
		return err
	case "PUT":
		return s.initiate(ctx, req)
	}
	return nil
}

// initiate checks bucket write access once per request and stashes the
// upload ACL next to the upload marker in the segment bucket. The ACL
// becomes the object ACL when the upload completes.
func (s *multipartStrategy) initiate(ctx context.Context, req *Request) error {
	if req.aclDone {
		return nil
	}
	bucketACL, err := s.a.check(ctx, req, "HEAD", req.Bucket, "", "")
	if err != nil {
		return err
	}
	if bucketACL == nil {
		return s3errors.GetAPIError(s3errors.ErrNoSuchBucket)
	}

	cfg := s.a.layer.Config()
	objectOwner := acl.NewOwner(req.User)
	reqACL, err := acl.FromHeaders(req.Header, bucketACL.Owner, &objectOwner,
		true, cfg.ACLEnforced, cfg.AllowNoOwner)
	if err != nil {
		return err
	}

	res := layer.Resource{
		Bucket: req.Bucket + MultipartSuffix,
		Object: req.Object + "/" + req.UploadID,
	}
	if err = s.a.layer.PutTmpACL(ctx, res, reqACL); err != nil {
		return err
	}
	req.aclDone = true
	return nil
}

func (s *multipartStrategy) authorizeUpload(ctx context.Context, req *Request, verb string) error {
	switch verb {
	case "HEAD":
		backend := "HEAD"
		if req.Method == "GET" {
			backend = "GET"
		}
		_, err := s.a.check(ctx, req, backend, req.Bucket, "", "")
		return err
	case "PUT":
		return s.complete(ctx, req)
	}
	return nil
}

// complete promotes the stashed upload ACL to the ACL of the assembled
// object.
func (s *multipartStrategy) complete(ctx context.Context, req *Request) error {
	segment := layer.Resource{
		Bucket: req.Bucket + MultipartSuffix,
		Object: req.Object + "/" + req.UploadID,
	}
	tmpACL, err := s.a.layer.GetTmpACL(ctx, segment)
	if err != nil {
		return err
	}
	return s.a.layer.PutACL(ctx, layer.Resource{Bucket: req.Bucket, Object: req.Object}, tmpACL)
}
