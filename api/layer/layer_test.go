package layer_test

import (
	"context"
	"testing"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
	"github.com/idrive-online-backup/swift-s3-gw/api/policy"
	"github.com/idrive-online-backup/swift-s3-gw/internal/memstore"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLayer() *layer.Layer {
	return layer.NewLayer(zap.NewNop(), memstore.New(), layer.Config{
		ACLEnforced:  true,
		AllowNoOwner: false,
	})
}

func TestResource(t *testing.T) {
	bucket := layer.Resource{Bucket: "mybucket"}
	require.Equal(t, policy.ResourceContainer, bucket.Kind())
	require.Equal(t, "x-container-sysmeta-s3api-acl", bucket.SysmetaHeader(layer.ItemACL))

	object := layer.Resource{Bucket: "mybucket", Object: "a/b.txt"}
	require.Equal(t, policy.ResourceObject, object.Kind())
	require.Equal(t, "x-object-sysmeta-s3api-tmpacl", object.SysmetaHeader(layer.ItemTmpACL))
}

func TestACLRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLayer()
	res := layer.Resource{Bucket: "mybucket"}

	owner := acl.NewOwner("test:tester")
	stored := acl.NewACL(owner, []acl.Grant{
		{Grantee: acl.NewUser("test:reader"), Permission: acl.PermissionRead},
		{Grantee: acl.AllUsers{}, Permission: acl.PermissionReadACP},
	}, true, false)

	require.NoError(t, l.PutACL(ctx, res, stored))

	got, err := l.GetACL(ctx, res)
	require.NoError(t, err)
	require.Equal(t, owner, got.Owner)
	require.Equal(t, stored.Grants, got.Grants)
	require.True(t, got.Enforced)
}

func TestACLAbsent(t *testing.T) {
	ctx := context.Background()
	l := newTestLayer()

	got, err := l.GetACL(ctx, layer.Resource{Bucket: "empty"})
	require.NoError(t, err)
	require.Empty(t, got.Owner.ID)
	require.Empty(t, got.Grants)
	// a blank ACL without owner denies everyone when owners are required
	require.Error(t, got.CheckOwner("test:tester"))
}

func TestTmpACL(t *testing.T) {
	ctx := context.Background()
	l := newTestLayer()
	res := layer.Resource{Bucket: "mybucket+segments", Object: "key/upload-id"}

	stored := acl.Private(acl.NewOwner("test:tester"), nil, true, false)
	require.NoError(t, l.PutTmpACL(ctx, res, stored))

	got, err := l.GetTmpACL(ctx, res)
	require.NoError(t, err)
	require.Equal(t, stored.Owner, got.Owner)
	require.Equal(t, stored.Grants, got.Grants)
}

func TestBucketPolicyRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLayer()

	p, err := policy.FromDocument([]byte(`{"Statement": [
		{"Effect": "Allow", "Principal": "*", "Action": "s3:GetObject", "Resource": "arn:aws:s3:::mybucket/*"}
	]}`), true, false)
	require.NoError(t, err)

	require.NoError(t, l.PutBucketPolicy(ctx, "mybucket", p))

	got, err := l.GetBucketPolicy(ctx, "mybucket")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Statement, 1)
	require.True(t, got.Enforced)

	require.NoError(t, l.DeleteBucketPolicy(ctx, "mybucket"))

	got, err = l.GetBucketPolicy(ctx, "mybucket")
	require.NoError(t, err)
	require.Nil(t, got)

	require.ErrorIs(t, l.DeleteBucketPolicy(ctx, "mybucket"), layer.ErrNotFound)
}
