package acl

import (
	"strings"

	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

const (
	// XMLNSXSI is the XML schema instance namespace used in ACL documents.
	XMLNSXSI = "http://www.w3.org/2001/XMLSchema-instance"

	granteeCanonicalUser = "CanonicalUser"
	granteeGroup         = "Group"
	granteeAmazonByEmail = "AmazonCustomerByEmail"

	allUsersGroupURI           = "http://acs.amazonaws.com/groups/global/AllUsers"
	authenticatedUsersGroupURI = "http://acs.amazonaws.com/groups/global/AuthenticatedUsers"
	logDeliveryGroupURI        = "http://acs.amazonaws.com/groups/s3/LogDelivery"

	logDeliveryUser = ".log_delivery"
)

// Grantee is a holder of a permission, either a canonical user or one of
// the predefined S3 groups.
type Grantee interface {
	// Contains checks that the given user id belongs to this grantee.
	Contains(userID string) bool
	// String returns the stable name stored in backend metadata.
	String() string

	document() GranteeDocument
}

// User is a grantee referring to a single account by its canonical id.
type User struct {
	ID          string
	DisplayName string
}

// NewUser creates a User grantee with the display name equal to the id.
func NewUser(id string) User {
	return User{ID: id, DisplayName: id}
}

func (u User) Contains(userID string) bool { return userID == u.ID }

func (u User) String() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

func (u User) document() GranteeDocument {
	return GranteeDocument{
		XMLNSXSI:    XMLNSXSI,
		XSIType:     granteeCanonicalUser,
		ID:          u.ID,
		DisplayName: u.String(),
	}
}

// AllUsers grants access to anyone. Unsigned requests never reach this
// layer, so it behaves the same as AuthenticatedUsers.
type AllUsers struct{}

func (AllUsers) Contains(string) bool { return true }
func (AllUsers) String() string       { return "AllUsers" }
func (g AllUsers) document() GranteeDocument {
	return groupDocument(allUsersGroupURI)
}

// AuthenticatedUsers grants access to any signed account.
type AuthenticatedUsers struct{}

func (AuthenticatedUsers) Contains(string) bool { return true }
func (AuthenticatedUsers) String() string       { return "AuthenticatedUsers" }
func (g AuthenticatedUsers) document() GranteeDocument {
	return groupDocument(authenticatedUsersGroupURI)
}

// LogDelivery lets the log delivery user write server access logs when
// granted WRITE and READ_ACP on a bucket.
type LogDelivery struct{}

func (LogDelivery) Contains(userID string) bool {
	if _, user, ok := strings.Cut(userID, ":"); ok {
		return user == logDeliveryUser
	}
	return userID == logDeliveryUser
}

func (LogDelivery) String() string { return "LogDelivery" }
func (g LogDelivery) document() GranteeDocument {
	return groupDocument(logDeliveryGroupURI)
}

func groupDocument(uri string) GranteeDocument {
	return GranteeDocument{
		XMLNSXSI: XMLNSXSI,
		XSIType:  granteeGroup,
		URI:      uri,
	}
}

func groupFromURI(uri string) (Grantee, error) {
	switch uri {
	case allUsersGroupURI:
		return AllUsers{}, nil
	case authenticatedUsersGroupURI:
		return AuthenticatedUsers{}, nil
	case logDeliveryGroupURI:
		return LogDelivery{}, nil
	}
	return nil, s3errors.GetAPIError(s3errors.ErrInvalidArgument)
}

// GranteeByName is the inverse of Grantee.String used when decoding
// backend metadata. Unknown names are treated as canonical user ids.
func GranteeByName(name string) Grantee {
	switch name {
	case "AllUsers":
		return AllUsers{}
	case "AuthenticatedUsers":
		return AuthenticatedUsers{}
	case "LogDelivery":
		return LogDelivery{}
	}
	return NewUser(name)
}

// GranteeFromHeader converts a single grant header token, such as
// id="1a2b3c" or uri="http://acs.amazonaws.com/groups/global/AllUsers",
// to a Grantee.
func GranteeFromHeader(token string) (Grantee, error) {
	kind, value, found := strings.Cut(strings.TrimSpace(token), "=")
	if !found {
		return nil, s3errors.GetAPIError(s3errors.ErrInvalidRequest)
	}
	value = strings.Trim(value, `"'`)

	switch kind {
	case "id":
		return NewUser(value), nil
	case "uri":
		return groupFromURI(value)
	case "emailAddress":
		return nil, s3errors.GetAPIError(s3errors.ErrNotImplemented)
	}
	return nil, s3errors.GetAPIError(s3errors.ErrInvalidArgument)
}
