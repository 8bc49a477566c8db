package layer

import (
	"testing"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/stretchr/testify/require"
)

func TestEncodeACL(t *testing.T) {
	a := acl.NewACL(acl.NewOwner("test:tester"), []acl.Grant{
		{Grantee: acl.NewUser("test:reader"), Permission: acl.PermissionRead},
		{Grantee: acl.LogDelivery{}, Permission: acl.PermissionWrite},
	}, true, false)

	raw, err := EncodeACL(a)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"Owner": "test:tester",
		"Grant": [
			{"Permission": "READ", "Grantee": "test:reader"},
			{"Permission": "WRITE", "Grantee": "LogDelivery"}
		]
	}`, string(raw))
}

func TestDecodeACL(t *testing.T) {
	raw := []byte(`{"Owner":"test:tester","Grant":[{"Permission":"FULL_CONTROL","Grantee":"AllUsers"},{"Permission":"READ","Grantee":"test:reader"}]}`)

	a, err := DecodeACL(raw, true, false)
	require.NoError(t, err)
	require.Equal(t, "test:tester", a.Owner.ID)
	require.Equal(t, []acl.Grant{
		{Grantee: acl.AllUsers{}, Permission: acl.PermissionFullControl},
		{Grantee: acl.NewUser("test:reader"), Permission: acl.PermissionRead},
	}, a.Grants)
}

func TestDecodeACLDegenerate(t *testing.T) {
	// empty and non-object values decay to a blank ACL
	for _, raw := range []string{"", `"a string"`, `[1, 2]`, `42`} {
		a, err := DecodeACL([]byte(raw), true, true)
		require.NoError(t, err, raw)
		require.Empty(t, a.Owner.ID, raw)
		require.Empty(t, a.Grants, raw)
		require.True(t, a.AllowNoOwner, raw)
	}

	_, err := DecodeACL([]byte(`{not json`), true, false)
	require.ErrorIs(t, err, ErrInvalidSubresource)

	// a grant with a bogus permission poisons the whole value
	_, err = DecodeACL([]byte(`{"Owner":"o","Grant":[{"Permission":"RULE","Grantee":"x"}]}`), true, false)
	require.ErrorIs(t, err, ErrInvalidSubresource)
}

func TestDecodePolicyInvalid(t *testing.T) {
	_, err := DecodePolicy([]byte(`{"Statement": []}`), true, false)
	require.ErrorIs(t, err, ErrInvalidSubresource)
}
