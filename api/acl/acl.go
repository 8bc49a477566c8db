package acl

import (
	"net/http"
	"strings"

	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

// Permission is an access permission carried by a single grant.
type Permission string

// Permissions defined by the S3 ACL model.
const (
	PermissionFullControl Permission = "FULL_CONTROL"
	PermissionRead        Permission = "READ"
	PermissionWrite       Permission = "WRITE"
	PermissionReadACP     Permission = "READ_ACP"
	PermissionWriteACP    Permission = "WRITE_ACP"

	// PermissionOwner is not a real grant permission. It marks operations
	// restricted to the resource owner, so it never matches any grant.
	PermissionOwner Permission = "OWNER"
)

// AmzACL is the canned ACL request header.
const AmzACL = "X-Amz-Acl"

// grant headers are matched by prefix, the suffix names the permission
const amzGrantHeaderLower = "x-amz-grant-"

// Valid reports whether p is one of the five grantable permissions.
func (p Permission) Valid() bool {
	switch p {
	case PermissionFullControl, PermissionRead, PermissionWrite,
		PermissionReadACP, PermissionWriteACP:
		return true
	}
	return false
}

// Owner identifies the account owning a bucket or object.
type Owner struct {
	ID          string
	DisplayName string
}

// NewOwner creates an Owner with the display name equal to the id.
func NewOwner(id string) Owner {
	return Owner{ID: id, DisplayName: id}
}

// Grant pairs a grantee with a permission.
type Grant struct {
	Grantee    Grantee
	Permission Permission
}

// NewGrant creates a Grant. The permission must be one of the five
// grantable permissions.
func NewGrant(grantee Grantee, permission Permission) (Grant, error) {
	if !Permission(strings.ToUpper(string(permission))).Valid() {
		return Grant{}, s3errors.GetAPIError(s3errors.ErrNotImplemented)
	}
	return Grant{Grantee: grantee, Permission: permission}, nil
}

// Allow checks that the grant gives the permission to the user.
func (g Grant) Allow(userID string, permission Permission) bool {
	return permission == g.Permission && g.Grantee.Contains(userID)
}

// ACL is the access control list of a single bucket or object.
//
// When Enforced is false the gateway ignores ACLs entirely and every
// check passes. AllowNoOwner controls resources whose metadata carries
// no owner: with it set they are treated as public.
type ACL struct {
	Owner        Owner
	Grants       []Grant
	Enforced     bool
	AllowNoOwner bool
}

// NewACL creates an ACL for the given owner and grants.
func NewACL(owner Owner, grants []Grant, enforced, allowNoOwner bool) *ACL {
	return &ACL{Owner: owner, Grants: grants, Enforced: enforced, AllowNoOwner: allowNoOwner}
}

// CheckOwner checks that the user owns the resource.
func (a *ACL) CheckOwner(userID string) error {
	if !a.Enforced {
		return nil
	}
	if a.Owner.ID == "" {
		if a.AllowNoOwner {
			return nil
		}
		return s3errors.GetAPIError(s3errors.ErrAccessDenied)
	}
	if userID != a.Owner.ID {
		return s3errors.GetAPIError(s3errors.ErrAccessDenied)
	}
	return nil
}

// CheckPermission checks that the user has the permission on the
// resource. The owner passes any check.
func (a *ACL) CheckPermission(userID string, permission Permission) error {
	if !a.Enforced {
		return nil
	}
	if err := a.CheckOwner(userID); err == nil {
		return nil
	}
	if permission.Valid() {
		for _, g := range a.Grants {
			if g.Allow(userID, PermissionFullControl) || g.Allow(userID, permission) {
				return nil
			}
		}
	}
	return s3errors.GetAPIError(s3errors.ErrAccessDenied)
}

// FromHeaders builds an ACL from the X-Amz-Acl and X-Amz-Grant-* request
// headers. Specifying both a canned ACL and explicit grants is rejected.
// Without any ACL header the result is the private ACL when asPrivate is
// set, nil otherwise. The owner of the new ACL is objectOwner when given,
// bucketOwner otherwise.
func FromHeaders(headers http.Header, bucketOwner Owner, objectOwner *Owner, asPrivate, enforced, allowNoOwner bool) (*ACL, error) {
	var grants []Grant

	for key, values := range headers {
		if !strings.HasPrefix(strings.ToLower(key), amzGrantHeaderLower) {
			continue
		}
		permission := Permission(strings.ReplaceAll(
			strings.ToUpper(key[len(amzGrantHeaderLower):]), "-", "_"))
		if !permission.Valid() {
			continue
		}
		for _, value := range values {
			for _, token := range strings.Split(value, ",") {
				grantee, err := GranteeFromHeader(token)
				if err != nil {
					return nil, err
				}
				grant, err := NewGrant(grantee, permission)
				if err != nil {
					return nil, err
				}
				grants = append(grants, grant)
			}
		}
	}

	if canned := headers.Values(AmzACL); len(canned) > 0 {
		if len(grants) > 0 {
			return nil, s3errors.GetAPIError(s3errors.ErrInvalidRequest)
		}
		cannedGrants, err := grantsForCanned(canned[0], bucketOwner, objectOwner)
		if err != nil {
			return nil, err
		}
		grants = cannedGrants
	}

	if len(grants) == 0 {
		if asPrivate {
			return Private(bucketOwner, objectOwner, enforced, allowNoOwner), nil
		}
		return nil, nil
	}

	owner := bucketOwner
	if objectOwner != nil {
		owner = *objectOwner
	}
	return NewACL(owner, grants, enforced, allowNoOwner), nil
}
