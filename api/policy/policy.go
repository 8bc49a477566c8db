package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

const iamUserARNPrefix = "arn:aws:iam::"

// ErrInvalidPolicy is returned for policy documents that cannot be
// parsed or fail validation. Concrete causes are wrapped around it.
var ErrInvalidPolicy = errors.New("invalid bucket policy")

// StringOrSlice is a JSON value that is either a single string or a
// list of strings. The original shape is preserved on re-encoding.
type StringOrSlice struct {
	values []string
	list   bool
}

// NewString creates a single-string value.
func NewString(v string) StringOrSlice {
	return StringOrSlice{values: []string{v}}
}

// NewSlice creates a list value.
func NewSlice(vs ...string) StringOrSlice {
	return StringOrSlice{values: vs, list: true}
}

// Values returns all carried strings.
func (s StringOrSlice) Values() []string { return s.values }

// IsList reports whether the JSON form was a list.
func (s StringOrSlice) IsList() bool { return s.list }

// IsZero reports whether no value was set at all.
func (s StringOrSlice) IsZero() bool { return !s.list && len(s.values) == 0 }

func (s *StringOrSlice) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		s.list = true
		return json.Unmarshal(data, &s.values)
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.values = []string{v}
	return nil
}

func (s StringOrSlice) MarshalJSON() ([]byte, error) {
	if s.list {
		return json.Marshal(s.values)
	}
	if len(s.values) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(s.values[0])
}

// Contains checks an action value against the requested action. Action
// names carry no wildcards, matching is exact in both forms.
func (s StringOrSlice) Contains(v string) bool {
	if !s.list {
		return len(s.values) == 1 && s.values[0] == v
	}
	for _, item := range s.values {
		if item == v {
			return true
		}
	}
	return false
}

// Principal identifies who a statement applies to. It is either the
// literal "*" or an object carrying an AWS member.
type principalAWS struct {
	AWS StringOrSlice `json:"AWS"`
}

type Principal struct {
	raw string
	AWS StringOrSlice
}

// NewPrincipalWildcard creates the "*" principal.
func NewPrincipalWildcard() Principal { return Principal{raw: "*"} }

// NewPrincipalAWS creates an {"AWS": ...} principal.
func NewPrincipalAWS(aws StringOrSlice) Principal { return Principal{AWS: aws} }

// IsZero reports whether the principal is absent.
func (p Principal) IsZero() bool { return p.raw == "" && p.AWS.IsZero() }

func (p *Principal) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.raw)
	}
	var aux principalAWS
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.AWS = aux.AWS
	return nil
}

func (p Principal) MarshalJSON() ([]byte, error) {
	if p.raw != "" {
		return json.Marshal(p.raw)
	}
	return json.Marshal(principalAWS{AWS: p.AWS})
}

// Match checks whether the principal covers the given user. Statement
// principals name users as arn:aws:iam::<user>. An AWS value of "*"
// matches anyone, in both the single and the list form.
func (p Principal) Match(userID string) bool {
	if p.raw == "*" {
		return true
	}
	if p.raw != "" {
		return false
	}
	arn := iamUserARNPrefix + userID
	if !p.AWS.IsList() {
		vs := p.AWS.Values()
		return len(vs) == 1 && (vs[0] == "*" || vs[0] == arn)
	}
	for _, v := range p.AWS.Values() {
		if v == "*" || v == arn {
			return true
		}
	}
	return false
}

// IPAddress carries the aws:SourceIp condition value.
type IPAddress struct {
	SourceIP string `json:"aws:SourceIp,omitempty"`
}

// Condition restricts a statement by source address. It is parsed and
// stored with the policy but not evaluated when checking permissions.
type Condition struct {
	IPAddress    *IPAddress `json:"IpAddress,omitempty"`
	NotIPAddress *IPAddress `json:"NotIpAddress,omitempty"`
}

// Statement is a single bucket policy rule.
type Statement struct {
	Sid       string        `json:"Sid,omitempty"`
	Effect    string        `json:"Effect"`
	Principal Principal     `json:"Principal"`
	Action    StringOrSlice `json:"Action"`
	Resource  StringOrSlice `json:"Resource"`
	Condition *Condition    `json:"Condition,omitempty"`
}

func (s *Statement) validate() error {
	if s.Effect == "" {
		return fmt.Errorf("%w: statement without Effect", ErrInvalidPolicy)
	}
	if s.Principal.IsZero() {
		return fmt.Errorf("%w: statement without Principal", ErrInvalidPolicy)
	}
	if s.Action.IsZero() {
		return fmt.Errorf("%w: statement without Action", ErrInvalidPolicy)
	}
	if s.Resource.IsZero() {
		return fmt.Errorf("%w: statement without Resource", ErrInvalidPolicy)
	}
	if s.Condition != nil && (s.Condition.IPAddress == nil || s.Condition.NotIPAddress == nil) {
		return fmt.Errorf("%w: condition requires both IpAddress and NotIpAddress", ErrInvalidPolicy)
	}
	return nil
}

// BucketPolicy is the policy document attached to a bucket.
//
// Enforced and AllowNoOwner mirror the ACL flags and are injected from
// the gateway configuration rather than the document.
type BucketPolicy struct {
	ID        string      `json:"Id,omitempty"`
	Version   string      `json:"Version,omitempty"`
	Statement []Statement `json:"Statement"`

	Enforced     bool `json:"-"`
	AllowNoOwner bool `json:"-"`
}

// FromDocument parses and validates a bucket policy JSON document.
func FromDocument(raw []byte, enforced, allowNoOwner bool) (*BucketPolicy, error) {
	var p BucketPolicy
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if len(p.Statement) == 0 {
		return nil, fmt.Errorf("%w: missing Statement", ErrInvalidPolicy)
	}
	for i := range p.Statement {
		if err := p.Statement[i].validate(); err != nil {
			return nil, err
		}
	}
	p.Enforced = enforced
	p.AllowNoOwner = allowNoOwner
	return &p, nil
}

// Document encodes the policy back to JSON.
func (p *BucketPolicy) Document() ([]byte, error) {
	return json.Marshal(p)
}

// CheckOwner checks that the user owns the bucket the policy is
// attached to.
func (p *BucketPolicy) CheckOwner(userID, ownerID string) error {
	if !p.Enforced {
		return nil
	}
	if ownerID == "" {
		if p.AllowNoOwner {
			return nil
		}
		return s3errors.GetAPIError(s3errors.ErrAccessDenied)
	}
	if userID != ownerID {
		return s3errors.GetAPIError(s3errors.ErrAccessDenied)
	}
	return nil
}

// CheckPermission checks the request against the policy statements. The
// bucket owner passes any check. Otherwise the first Allow statement
// matching principal, resource and action grants access; a request no
// statement allows is denied.
func (p *BucketPolicy) CheckPermission(userID, ownerID, method, bucket, key, query string) error {
	if err := p.CheckOwner(userID, ownerID); err == nil {
		return nil
	}

	resource := ResourceContainer
	if key != "" {
		resource = ResourceObject
	}
	action, ok := ActionFor(method, resource, query)
	if !ok {
		return fmt.Errorf("no policy action for %s %s %q", method, resource, query)
	}

	for i := range p.Statement {
		s := &p.Statement[i]
		if s.Effect != "Allow" {
			continue
		}
		if s.Principal.Match(userID) &&
			matchResource(s.Resource, bucket, key) &&
			s.Action.Contains(action) {
			return nil
		}
	}
	return s3errors.GetAPIError(s3errors.ErrAccessDenied)
}

// matchResource checks a statement resource against the addressed
// bucket and key. The resource string is split around the first
// occurrence of the bucket name; the remainder selects the whole
// bucket ("", "/", "/*"), a single key or a key prefix.
func matchResource(resource StringOrSlice, bucket, key string) bool {
	for _, r := range resource.Values() {
		if matchSingleResource(r, bucket, key) {
			return true
		}
	}
	return false
}

func matchSingleResource(resource, bucket, key string) bool {
	_, rest, found := strings.Cut(resource, bucket)
	if !found {
		return false
	}
	if key == "" {
		return rest == "" || rest == "/" || rest == "/*"
	}
	head := ""
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		head = key[:i]
	}
	return rest == "/*" || rest == "/"+key || rest == "/"+head+"/*"
}
