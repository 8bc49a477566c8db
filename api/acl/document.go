package acl

import (
	"encoding/xml"
	"errors"

	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

// MaxBodySize limits the size of an ACL XML document accepted in a
// request body.
const MaxBodySize = 200 * 1024

// AccessControlPolicy is the XML form of an ACL.
type AccessControlPolicy struct {
	XMLName xml.Name          `xml:"AccessControlPolicy"`
	Owner   OwnerDocument     `xml:"Owner"`
	List    AccessControlList `xml:"AccessControlList"`
}

// AccessControlList is the grant list of an AccessControlPolicy.
type AccessControlList struct {
	Grants []GrantDocument `xml:"Grant"`
}

// OwnerDocument is the XML form of an Owner.
type OwnerDocument struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName,omitempty"`
}

// GrantDocument is the XML form of a Grant.
type GrantDocument struct {
	Grantee    GranteeDocument `xml:"Grantee"`
	Permission string          `xml:"Permission"`
}

// GranteeDocument is the XML form of a Grantee. XSIType carries the
// xsi:type discriminator on output; the decoder stores the same
// attribute in Type since it matches namespaced attributes by local
// name only.
type GranteeDocument struct {
	XMLName     xml.Name `xml:"Grantee"`
	XMLNSXSI    string   `xml:"xmlns:xsi,attr,omitempty"`
	XSIType     string   `xml:"xsi:type,attr,omitempty"`
	Type        string   `xml:"type,attr,omitempty"`
	ID          string   `xml:"ID,omitempty"`
	DisplayName string   `xml:"DisplayName,omitempty"`
	URI         string   `xml:"URI,omitempty"`
}

func (d GranteeDocument) granteeType() string {
	if d.Type != "" {
		return d.Type
	}
	return d.XSIType
}

// ErrMissingOwner is returned when an ACL document has no owner id.
var ErrMissingOwner = errors.New("missing owner id in access control policy")

// ParseDocument decodes an ACL XML document of at most MaxBodySize
// bytes.
func ParseDocument(raw []byte, enforced, allowNoOwner bool) (*ACL, error) {
	if len(raw) > MaxBodySize {
		return nil, s3errors.GetAPIError(s3errors.ErrMalformedACL)
	}
	var doc AccessControlPolicy
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, s3errors.GetAPIError(s3errors.ErrMalformedACL)
	}
	return FromDocument(&doc, enforced, allowNoOwner)
}

// FromDocument converts a decoded AccessControlPolicy to an ACL.
func FromDocument(doc *AccessControlPolicy, enforced, allowNoOwner bool) (*ACL, error) {
	if doc.Owner.ID == "" {
		return nil, ErrMissingOwner
	}
	owner := Owner{ID: doc.Owner.ID, DisplayName: doc.Owner.DisplayName}
	if owner.DisplayName == "" {
		owner.DisplayName = owner.ID
	}

	grants := make([]Grant, 0, len(doc.List.Grants))
	for _, g := range doc.List.Grants {
		grantee, err := granteeFromDocument(g.Grantee)
		if err != nil {
			return nil, err
		}
		grant, err := NewGrant(grantee, Permission(g.Permission))
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return NewACL(owner, grants, enforced, allowNoOwner), nil
}

func granteeFromDocument(doc GranteeDocument) (Grantee, error) {
	switch doc.granteeType() {
	case granteeCanonicalUser:
		user := NewUser(doc.ID)
		if doc.DisplayName != "" {
			user.DisplayName = doc.DisplayName
		}
		return user, nil
	case granteeGroup:
		return groupFromURI(doc.URI)
	case granteeAmazonByEmail:
		return nil, s3errors.GetAPIError(s3errors.ErrNotImplemented)
	}
	return nil, s3errors.GetAPIError(s3errors.ErrMalformedACL)
}

// Document converts the ACL to its XML form.
func (a *ACL) Document() *AccessControlPolicy {
	doc := &AccessControlPolicy{
		Owner: OwnerDocument{
			ID:          a.Owner.ID,
			DisplayName: a.Owner.DisplayName,
		},
	}
	for _, g := range a.Grants {
		doc.List.Grants = append(doc.List.Grants, GrantDocument{
			Grantee:    g.Grantee.document(),
			Permission: string(g.Permission),
		})
	}
	return doc
}
