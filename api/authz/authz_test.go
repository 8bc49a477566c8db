package authz

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
	"github.com/idrive-online-backup/swift-s3-gw/internal/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authzContext struct {
	t     *testing.T
	ctx   context.Context
	layer *layer.Layer
	authz *Authorizer
}

func prepareAuthzContext(t *testing.T) *authzContext {
	l := layer.NewLayer(zap.NewNop(), memstore.New(), layer.Config{
		ACLEnforced:  true,
		AllowNoOwner: false,
	})
	return &authzContext{
		t:     t,
		ctx:   context.Background(),
		layer: l,
		authz: New(zap.NewNop(), l),
	}
}

func (c *authzContext) createBucket(bucket, owner string) {
	req := &Request{
		Controller: ControllerBucket,
		Method:     "PUT",
		Bucket:     bucket,
		User:       owner,
		Header:     http.Header{},
		Query:      url.Values{},
	}
	require.NoError(c.t, c.authz.Authorize(c.ctx, req, "PUT"))
}

func (c *authzContext) createObject(bucket, object, user string, hdr http.Header) error {
	if hdr == nil {
		hdr = http.Header{}
	}
	req := &Request{
		Controller: ControllerObject,
		Method:     "PUT",
		Bucket:     bucket,
		Object:     object,
		User:       user,
		Header:     hdr,
		Query:      url.Values{},
	}
	return c.authz.Authorize(c.ctx, req, "PUT")
}

func newRequest(kind ControllerKind, method, bucket, object, user string) *Request {
	return &Request{
		Controller: kind,
		Method:     method,
		Bucket:     bucket,
		Object:     object,
		User:       user,
		Header:     http.Header{},
		Query:      url.Values{},
	}
}

func TestBucketOwnerAccess(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	// the private ACL admits the owner only
	req := newRequest(ControllerBucket, "HEAD", "mybucket", "", "test:tester")
	require.NoError(t, c.authz.Authorize(c.ctx, req, "HEAD"))

	req = newRequest(ControllerBucket, "HEAD", "mybucket", "", "test:other")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, req, "HEAD"))
}

func TestBucketCannedACL(t *testing.T) {
	c := prepareAuthzContext(t)

	hdr := http.Header{}
	hdr.Set(acl.AmzACL, acl.CannedPublicRead)
	req := newRequest(ControllerBucket, "PUT", "mybucket", "", "test:tester")
	req.Header = hdr
	require.NoError(t, c.authz.Authorize(c.ctx, req, "PUT"))

	// anyone may list a public-read bucket
	get := newRequest(ControllerBucket, "GET", "mybucket", "", "test:other")
	require.NoError(t, c.authz.Authorize(c.ctx, get, "GET"))

	// but writing still requires the WRITE permission
	put := newRequest(ControllerObject, "PUT", "mybucket", "a.txt", "test:other")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, put, "PUT"))
}

func TestGetServiceRequiresOwner(t *testing.T) {
	c := prepareAuthzContext(t)

	hdr := http.Header{}
	hdr.Set(acl.AmzACL, acl.CannedPublicReadWrite)
	req := newRequest(ControllerBucket, "PUT", "mybucket", "", "test:tester")
	req.Header = hdr
	require.NoError(t, c.authz.Authorize(c.ctx, req, "PUT"))

	// listing the service enumerates buckets with a HEAD on each, which
	// only the owner passes even on a public bucket
	head := newRequest(ControllerBucket, "GET", "mybucket", "", "test:other")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, head, "HEAD"))

	head = newRequest(ControllerBucket, "GET", "mybucket", "", "test:tester")
	require.NoError(t, c.authz.Authorize(c.ctx, head, "HEAD"))
}

func TestObjectLifecycle(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	// the bucket owner writes an object
	require.NoError(t, c.createObject("mybucket", "a.txt", "test:tester", nil))

	// the object got a private ACL
	get := newRequest(ControllerObject, "GET", "mybucket", "a.txt", "test:other")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, get, "GET"))

	get = newRequest(ControllerObject, "GET", "mybucket", "a.txt", "test:tester")
	require.NoError(t, c.authz.Authorize(c.ctx, get, "GET"))

	// deleting an object needs bucket WRITE, not object permissions
	del := newRequest(ControllerObject, "DELETE", "mybucket", "a.txt", "test:other")
	require.NoError(t, c.authz.Authorize(c.ctx, del, "HEAD"))
	requireAccessDenied(t, c.authz.Authorize(c.ctx, del, "DELETE"))

	del = newRequest(ControllerObject, "DELETE", "mybucket", "a.txt", "test:tester")
	require.NoError(t, c.authz.Authorize(c.ctx, del, "DELETE"))
}

func TestObjectWriterKeepsOwnership(t *testing.T) {
	c := prepareAuthzContext(t)

	hdr := http.Header{}
	hdr.Set(acl.AmzACL, acl.CannedPublicReadWrite)
	req := newRequest(ControllerBucket, "PUT", "mybucket", "", "test:tester")
	req.Header = hdr
	require.NoError(t, c.authz.Authorize(c.ctx, req, "PUT"))

	// another account writes into the public bucket and owns the object
	require.NoError(t, c.createObject("mybucket", "b.txt", "test:writer", nil))

	stored, err := c.layer.GetACL(c.ctx, layer.Resource{Bucket: "mybucket", Object: "b.txt"})
	require.NoError(t, err)
	require.Equal(t, "test:writer", stored.Owner.ID)
}

func TestBucketOwnerFullControlOnObject(t *testing.T) {
	c := prepareAuthzContext(t)

	hdr := http.Header{}
	hdr.Set(acl.AmzACL, acl.CannedPublicReadWrite)
	req := newRequest(ControllerBucket, "PUT", "mybucket", "", "test:tester")
	req.Header = hdr
	require.NoError(t, c.authz.Authorize(c.ctx, req, "PUT"))

	objHdr := http.Header{}
	objHdr.Set(acl.AmzACL, acl.CannedBucketOwnerFullControl)
	require.NoError(t, c.createObject("mybucket", "b.txt", "test:writer", objHdr))

	// the bucket owner got FULL_CONTROL on the foreign object
	get := newRequest(ControllerObject, "GET", "mybucket", "b.txt", "test:tester")
	require.NoError(t, c.authz.Authorize(c.ctx, get, "GET"))
}

func TestSegmentBucketSkips(t *testing.T) {
	c := prepareAuthzContext(t)

	del := newRequest(ControllerBucket, "DELETE", "mybucket+segments", "", "test:anyone")
	require.NoError(t, c.authz.Authorize(c.ctx, del, "DELETE"))
	require.NoError(t, c.authz.Authorize(c.ctx, del, "GET"))
}

func TestMissingRule(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	// HEAD on an object as part of a HEAD bucket request has no rule
	req := newRequest(ControllerBucket, "OPTIONS", "mybucket", "", "test:tester")
	err := c.authz.Authorize(c.ctx, req, "OPTIONS")
	require.Error(t, err)
	require.False(t, s3errors.IsS3Error(err, s3errors.ErrAccessDenied))
}

func TestACLSubresource(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	// reading the bucket ACL needs READ_ACP
	get := newRequest(ControllerACL, "GET", "mybucket", "", "test:other")
	get.Query.Set("acl", "")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, get, "GET"))

	get.User = "test:tester"
	require.NoError(t, c.authz.Authorize(c.ctx, get, "GET"))
}

func TestPutBucketACL(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	put := newRequest(ControllerACL, "PUT", "mybucket", "", "test:tester")
	put.Query.Set("acl", "")
	put.Header.Set(acl.AmzACL, acl.CannedPublicRead)
	require.NoError(t, c.authz.Authorize(c.ctx, put, "PUT"))

	stored, err := c.layer.GetACL(c.ctx, layer.Resource{Bucket: "mybucket"})
	require.NoError(t, err)
	require.NoError(t, stored.CheckPermission("test:anyone", acl.PermissionRead))
}

func TestPutACLRequiresSource(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	put := newRequest(ControllerACL, "PUT", "mybucket", "", "test:tester")
	put.Query.Set("acl", "")
	err := c.authz.Authorize(c.ctx, put, "PUT")
	require.True(t, s3errors.IsS3Error(err, s3errors.ErrMissingSecurityHeader))

	// headers and body together are rejected
	put.Header.Set(acl.AmzACL, acl.CannedPrivate)
	put.Body = []byte("<AccessControlPolicy/>")
	err = c.authz.Authorize(c.ctx, put, "PUT")
	require.True(t, s3errors.IsS3Error(err, s3errors.ErrUnexpectedContent))
}

func TestPutACLCannotChangeOwner(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	put := newRequest(ControllerACL, "PUT", "mybucket", "", "test:tester")
	put.Query.Set("acl", "")
	put.Body = []byte(`
<AccessControlPolicy>
  <Owner><ID>test:usurper</ID></Owner>
  <AccessControlList>
    <Grant>
      <Grantee xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xsi:type="CanonicalUser">
        <ID>test:usurper</ID>
      </Grantee>
      <Permission>FULL_CONTROL</Permission>
    </Grant>
  </AccessControlList>
</AccessControlPolicy>`)
	requireAccessDenied(t, c.authz.Authorize(c.ctx, put, "PUT"))
}

func TestPutObjectACL(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")
	require.NoError(t, c.createObject("mybucket", "a.txt", "test:tester", nil))

	put := newRequest(ControllerACL, "PUT", "mybucket", "a.txt", "test:tester")
	put.Query.Set("acl", "")
	put.Header.Set("X-Amz-Grant-Read", `id="test:reader"`)
	require.NoError(t, c.authz.Authorize(c.ctx, put, "PUT"))

	get := newRequest(ControllerObject, "GET", "mybucket", "a.txt", "test:reader")
	require.NoError(t, c.authz.Authorize(c.ctx, get, "GET"))
}

func TestBucketPolicyLifecycle(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	put := newRequest(ControllerPolicy, "PUT", "mybucket", "", "test:tester")
	put.Query.Set("policy", "")
	put.Body = []byte(`{"Statement": [
		{"Effect": "Allow", "Principal": {"AWS": "arn:aws:iam::test:reader"},
		 "Action": "s3:GetObject", "Resource": "arn:aws:s3:::mybucket/*"}
	]}`)
	require.NoError(t, c.authz.Authorize(c.ctx, put, "PUT"))

	// with a policy in place it governs the decision
	get := newRequest(ControllerObject, "GET", "mybucket", "a.txt", "test:reader")
	require.NoError(t, c.authz.Authorize(c.ctx, get, "GET"))

	get.User = "test:other"
	requireAccessDenied(t, c.authz.Authorize(c.ctx, get, "GET"))

	// the policy does not allow listing, even for the reader
	list := newRequest(ControllerBucket, "GET", "mybucket", "", "test:reader")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, list, "GET"))

	// the owner bypasses the policy
	list.User = "test:tester"
	require.NoError(t, c.authz.Authorize(c.ctx, list, "GET"))

	del := newRequest(ControllerPolicy, "DELETE", "mybucket", "", "test:tester")
	del.Query.Set("policy", "")
	require.NoError(t, c.authz.Authorize(c.ctx, del, "DELETE"))

	err := c.authz.Authorize(c.ctx, del, "DELETE")
	require.True(t, s3errors.IsS3Error(err, s3errors.ErrNoSuchBucketPolicy))

	// with the policy gone the ACL decides again
	requireAccessDenied(t, c.authz.Authorize(c.ctx, get, "GET"))
}

func TestPutBucketPolicyMalformed(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	put := newRequest(ControllerPolicy, "PUT", "mybucket", "", "test:tester")
	put.Query.Set("policy", "")
	put.Body = []byte(`{"Statement": []}`)
	err := c.authz.Authorize(c.ctx, put, "PUT")
	require.True(t, s3errors.IsS3Error(err, s3errors.ErrMalformedPolicy))
}

func TestPutBucketPolicyRequiresWrite(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	put := newRequest(ControllerPolicy, "PUT", "mybucket", "", "test:other")
	put.Query.Set("policy", "")
	put.Body = []byte(`{"Statement": [
		{"Effect": "Allow", "Principal": "*", "Action": "*", "Resource": "*"}
	]}`)
	requireAccessDenied(t, c.authz.Authorize(c.ctx, put, "PUT"))
}

func TestMultipartUpload(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	initiate := newRequest(ControllerUploads, "POST", "mybucket", "big.bin", "test:tester")
	initiate.Query.Set("uploads", "")
	initiate.UploadID = "upload-1"
	initiate.Header.Set(acl.AmzACL, acl.CannedPublicRead)
	require.NoError(t, c.authz.Authorize(c.ctx, initiate, "PUT"))

	// the upload ACL is stashed next to the upload marker
	tmp, err := c.layer.GetTmpACL(c.ctx, layer.Resource{
		Bucket: "mybucket" + MultipartSuffix,
		Object: "big.bin/upload-1",
	})
	require.NoError(t, err)
	require.Equal(t, "test:tester", tmp.Owner.ID)

	// repeated backend requests within the same client request check once
	require.NoError(t, c.authz.Authorize(c.ctx, initiate, "PUT"))

	// uploading a part checks the base bucket
	part := newRequest(ControllerPart, "PUT", "mybucket"+MultipartSuffix, "big.bin/upload-1/1", "test:other")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, part, "HEAD"))

	part.User = "test:tester"
	require.NoError(t, c.authz.Authorize(c.ctx, part, "HEAD"))

	// completing promotes the stashed ACL to the object
	complete := newRequest(ControllerUpload, "POST", "mybucket", "big.bin", "test:tester")
	complete.Query.Set("uploadId", "upload-1")
	complete.UploadID = "upload-1"
	require.NoError(t, c.authz.Authorize(c.ctx, complete, "HEAD"))
	require.NoError(t, c.authz.Authorize(c.ctx, complete, "PUT"))

	stored, err := c.layer.GetACL(c.ctx, layer.Resource{Bucket: "mybucket", Object: "big.bin"})
	require.NoError(t, err)
	require.Equal(t, "test:tester", stored.Owner.ID)
	require.NoError(t, stored.CheckPermission("test:anyone", acl.PermissionRead))
}

func TestMultipartSkipsUndefinedVerbs(t *testing.T) {
	c := prepareAuthzContext(t)

	req := newRequest(ControllerUploads, "POST", "mybucket", "big.bin", "test:anyone")
	require.NoError(t, c.authz.Authorize(c.ctx, req, "DELETE"))

	req = newRequest(ControllerUpload, "DELETE", "mybucket", "big.bin", "test:anyone")
	require.NoError(t, c.authz.Authorize(c.ctx, req, "GET"))
}

func TestMultiObjectDelete(t *testing.T) {
	c := prepareAuthzContext(t)
	c.createBucket("mybucket", "test:tester")

	req := newRequest(ControllerMultiObjectDelete, "POST", "mybucket", "", "test:other")
	requireAccessDenied(t, c.authz.Authorize(c.ctx, req, "HEAD"))

	req.User = "test:tester"
	require.NoError(t, c.authz.Authorize(c.ctx, req, "HEAD"))

	// per-object checks are skipped
	obj := newRequest(ControllerMultiObjectDelete, "POST", "mybucket", "a.txt", "test:other")
	require.NoError(t, c.authz.Authorize(c.ctx, obj, "HEAD"))
	require.NoError(t, c.authz.Authorize(c.ctx, obj, "DELETE"))
}

func TestNotEnforced(t *testing.T) {
	l := layer.NewLayer(zap.NewNop(), memstore.New(), layer.Config{
		ACLEnforced: false,
	})
	a := New(zap.NewNop(), l)
	ctx := context.Background()

	create := newRequest(ControllerBucket, "PUT", "mybucket", "", "test:tester")
	require.NoError(t, a.Authorize(ctx, create, "PUT"))

	// with enforcement off any user passes any check
	head := newRequest(ControllerBucket, "HEAD", "mybucket", "", "test:other")
	require.NoError(t, a.Authorize(ctx, head, "HEAD"))

	del := newRequest(ControllerBucket, "DELETE", "mybucket", "", "test:other")
	require.NoError(t, a.Authorize(ctx, del, "DELETE"))
}

func requireAccessDenied(t *testing.T, err error) {
	t.Helper()
	require.True(t, s3errors.IsS3Error(err, s3errors.ErrAccessDenied), "expected AccessDenied, got %v", err)
}
