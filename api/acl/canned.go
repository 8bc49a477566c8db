package acl

import (
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

// Canned ACL names supported by AWS S3.
const (
	CannedPrivate                = "private"
	CannedPublicRead             = "public-read"
	CannedPublicReadWrite        = "public-read-write"
	CannedAuthenticatedRead      = "authenticated-read"
	CannedBucketOwnerRead        = "bucket-owner-read"
	CannedBucketOwnerFullControl = "bucket-owner-full-control"
	CannedLogDeliveryWrite       = "log-delivery-write"
)

// grantsForCanned expands a canned ACL name into the ordered grant list
// it stands for. Unknown names are rejected with InvalidArgument.
func grantsForCanned(canned string, bucketOwner Owner, objectOwner *Owner) ([]Grant, error) {
	owner := bucketOwner
	if objectOwner != nil {
		owner = *objectOwner
	}
	ownerUser := NewUser(owner.ID)
	bucketOwnerUser := NewUser(bucketOwner.ID)

	var grants []Grant
	switch canned {
	case CannedPrivate:
		grants = []Grant{
			{ownerUser, PermissionFullControl},
		}
	case CannedPublicRead:
		grants = []Grant{
			{AllUsers{}, PermissionRead},
			{ownerUser, PermissionFullControl},
		}
	case CannedPublicReadWrite:
		grants = []Grant{
			{AllUsers{}, PermissionRead},
			{AllUsers{}, PermissionWrite},
			{ownerUser, PermissionFullControl},
		}
	case CannedAuthenticatedRead:
		grants = []Grant{
			{AuthenticatedUsers{}, PermissionRead},
			{ownerUser, PermissionFullControl},
		}
	case CannedBucketOwnerRead:
		grants = []Grant{
			{bucketOwnerUser, PermissionRead},
			{ownerUser, PermissionFullControl},
		}
	case CannedBucketOwnerFullControl:
		grants = []Grant{
			{ownerUser, PermissionFullControl},
			{bucketOwnerUser, PermissionFullControl},
		}
	case CannedLogDeliveryWrite:
		grants = []Grant{
			{LogDelivery{}, PermissionWrite},
			{LogDelivery{}, PermissionReadACP},
			{ownerUser, PermissionFullControl},
		}
	default:
		return nil, s3errors.GetAPIError(s3errors.ErrInvalidArgument)
	}
	return grants, nil
}

// Canned builds the ACL named by canned for the given owners.
func Canned(canned string, bucketOwner Owner, objectOwner *Owner, enforced, allowNoOwner bool) (*ACL, error) {
	grants, err := grantsForCanned(canned, bucketOwner, objectOwner)
	if err != nil {
		return nil, err
	}
	owner := bucketOwner
	if objectOwner != nil {
		owner = *objectOwner
	}
	return NewACL(owner, grants, enforced, allowNoOwner), nil
}

// Private builds the default owner-only ACL.
func Private(bucketOwner Owner, objectOwner *Owner, enforced, allowNoOwner bool) *ACL {
	a, _ := Canned(CannedPrivate, bucketOwner, objectOwner, enforced, allowNoOwner)
	return a
}
