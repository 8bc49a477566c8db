package policy

// Resource kinds a policy statement can govern.
const (
	ResourceContainer = "container"
	ResourceObject    = "object"
)

type actionKey struct {
	method   string
	resource string
	query    string
}

// bucketPolicyActions maps a request verb, resource kind and subresource
// query to the S3 action name used in policy statements.
var bucketPolicyActions = map[actionKey]string{
	{"HEAD", ResourceContainer, ""}:           "s3:HeadBucket",
	{"GET", ResourceContainer, ""}:            "s3:ListBucket",
	{"GET", ResourceContainer, "acl"}:         "s3:GetBucketAcl",
	{"GET", ResourceContainer, "policy"}:      "s3:GetBucketPolicy",
	{"GET", ResourceContainer, "versioning"}:  "s3:GetBucketVersioning",
	{"GET", ResourceContainer, "uploads"}:     "s3:ListBucketMultipartUploads",
	{"PUT", ResourceContainer, ""}:            "s3:CreateBucket",
	{"PUT", ResourceContainer, "acl"}:         "s3:PutBucketAcl",
	{"PUT", ResourceContainer, "policy"}:      "s3:PutBucketPolicy",
	{"PUT", ResourceContainer, "versioning"}:  "s3:PutBucketVersioning",
	{"DELETE", ResourceContainer, ""}:         "s3:DeleteBucket",
	{"DELETE", ResourceContainer, "policy"}:   "s3:DeleteBucketPolicy",
	{"GET", ResourceObject, ""}:               "s3:GetObject",
	{"GET", ResourceObject, "acl"}:            "s3:GetObjectAcl",
	{"GET", ResourceObject, "uploadId"}:       "s3:ListMultipartUploadParts",
	{"PUT", ResourceObject, ""}:               "s3:PutObject",
	{"PUT", ResourceObject, "acl"}:            "s3:PutObjectAcl",
	{"DELETE", ResourceObject, ""}:            "s3:DeleteObject",
}

// ActionFor resolves the S3 action name for a request. The query argument
// names the subresource being addressed, empty for plain requests.
func ActionFor(method, resource, query string) (string, bool) {
	action, ok := bucketPolicyActions[actionKey{method, resource, query}]
	return action, ok
}
