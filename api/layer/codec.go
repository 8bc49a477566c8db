package layer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/policy"
)

// ErrInvalidSubresource is returned when stored metadata cannot be
// decoded back to a subresource.
var ErrInvalidSubresource = errors.New("invalid subresource")

type aclGrantJSON struct {
	Permission string `json:"Permission"`
	Grantee    string `json:"Grantee"`
}

type aclJSON struct {
	Owner string         `json:"Owner"`
	Grant []aclGrantJSON `json:"Grant"`
}

// EncodeACL serializes an ACL to its metadata form. Group grantees are
// stored by name, users by display name.
func EncodeACL(a *acl.ACL) ([]byte, error) {
	doc := aclJSON{Owner: a.Owner.ID, Grant: []aclGrantJSON{}}
	for _, g := range a.Grants {
		doc.Grant = append(doc.Grant, aclGrantJSON{
			Permission: string(g.Permission),
			Grantee:    g.Grantee.String(),
		})
	}
	return json.Marshal(doc)
}

// DecodeACL deserializes ACL metadata. An empty value or a JSON value
// that is not an object yields a blank ACL; anything else that fails to
// decode is reported as an invalid subresource.
func DecodeACL(raw []byte, enforced, allowNoOwner bool) (*acl.ACL, error) {
	if len(raw) == 0 {
		return acl.NewACL(acl.Owner{}, nil, enforced, allowNoOwner), nil
	}

	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: acl: %v", ErrInvalidSubresource, err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return acl.NewACL(acl.Owner{}, nil, enforced, allowNoOwner), nil
	}

	var doc aclJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: acl: %v", ErrInvalidSubresource, err)
	}

	grants := make([]acl.Grant, 0, len(doc.Grant))
	for _, g := range doc.Grant {
		grant, err := acl.NewGrant(acl.GranteeByName(g.Grantee), acl.Permission(g.Permission))
		if err != nil {
			return nil, fmt.Errorf("%w: acl: %v", ErrInvalidSubresource, err)
		}
		grants = append(grants, grant)
	}
	return acl.NewACL(acl.NewOwner(doc.Owner), grants, enforced, allowNoOwner), nil
}

// EncodePolicy serializes a bucket policy to its metadata form.
func EncodePolicy(p *policy.BucketPolicy) ([]byte, error) {
	return p.Document()
}

// DecodePolicy deserializes bucket policy metadata.
func DecodePolicy(raw []byte, enforced, allowNoOwner bool) (*policy.BucketPolicy, error) {
	p, err := policy.FromDocument(raw, enforced, allowNoOwner)
	if err != nil {
		return nil, fmt.Errorf("%w: policy: %v", ErrInvalidSubresource, err)
	}
	return p, nil
}
