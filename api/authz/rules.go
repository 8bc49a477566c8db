package authz

import (
	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/policy"
)

// MultipartSuffix marks the shadow bucket holding the parts of
// in-flight multipart uploads.
const MultipartSuffix = "+segments"

type ruleKey struct {
	// method is the verb of the client request.
	method string
	// backend is the verb of the storage request being authorized.
	backend string
	// resource is the kind of the addressed resource.
	resource string
}

type rule struct {
	// resource overrides the checked resource kind when set.
	resource   string
	permission acl.Permission
}

// aclRules maps a client verb, backend verb and resource kind to the
// ACL permission required for the storage request.
var aclRules = map[ruleKey]rule{
	// HEAD Bucket
	{"HEAD", "HEAD", policy.ResourceContainer}: {permission: acl.PermissionRead},
	// GET Service
	{"GET", "HEAD", policy.ResourceContainer}: {permission: acl.PermissionOwner},
	// GET Bucket, List Parts, List Multipart Uploads
	{"GET", "GET", policy.ResourceContainer}: {permission: acl.PermissionRead},
	// PUT Object, PUT Object Copy
	{"PUT", "HEAD", policy.ResourceContainer}: {permission: acl.PermissionWrite},
	// DELETE Bucket
	{"DELETE", "DELETE", policy.ResourceContainer}: {permission: acl.PermissionOwner},
	// HEAD Object
	{"HEAD", "HEAD", policy.ResourceObject}: {permission: acl.PermissionRead},
	// GET Object
	{"GET", "GET", policy.ResourceObject}: {permission: acl.PermissionRead},
	// PUT Object Copy, Upload Part Copy
	{"PUT", "HEAD", policy.ResourceObject}: {permission: acl.PermissionRead},
	// Abort Multipart Upload
	{"DELETE", "HEAD", policy.ResourceContainer}: {permission: acl.PermissionWrite},
	// DELETE Object
	{"DELETE", "DELETE", policy.ResourceObject}: {
		resource:   policy.ResourceContainer,
		permission: acl.PermissionWrite,
	},
	// Complete Multipart Upload, Delete Multiple Objects,
	// Initiate Multipart Upload
	{"POST", "HEAD", policy.ResourceContainer}: {permission: acl.PermissionWrite},
	// Versioning
	{"PUT", "POST", policy.ResourceContainer}:   {permission: acl.PermissionWrite},
	{"DELETE", "GET", policy.ResourceContainer}: {permission: acl.PermissionWrite},
}

func lookupRule(method, backend, resource string) (rule, bool) {
	r, ok := aclRules[ruleKey{method, backend, resource}]
	return r, ok
}
