package s3errors

import (
	"fmt"
	"net/http"
)

// ErrorCode identifies an API error returned to S3 clients.
type ErrorCode int

// Error codes, see full list at https://docs.aws.amazon.com/AmazonS3/latest/API/ErrorResponses.html.
const (
	_ ErrorCode = iota
	ErrAccessDenied
	ErrInvalidArgument
	ErrInvalidRequest
	ErrMalformedACL
	ErrMalformedPolicy
	ErrMalformedXML
	ErrMissingSecurityHeader
	ErrUnexpectedContent
	ErrNoSuchBucket
	ErrNoSuchKey
	ErrNoSuchBucketPolicy
	ErrNoSuchTagSet
	ErrNotImplemented
	ErrInternalError
	ErrOperationMaxedOut
	ErrUnknownAPIRequest
	ErrAuthorizationHeaderMalformed
	ErrInvalidAccessKeyID
	ErrSignatureDoesNotMatch
)

// Error is the wire representation of an API error.
type Error struct {
	ErrCode        ErrorCode
	Code           string
	Description    string
	HTTPStatusCode int
}

// Error implements the error interface.
func (e Error) Error() string {
	return fmt.Sprintf("%s: %d => %s", e.Code, e.HTTPStatusCode, e.Description)
}

// In returns true if the error code is one of the given codes.
func (e Error) In(codes ...ErrorCode) bool {
	for _, c := range codes {
		if e.ErrCode == c {
			return true
		}
	}
	return false
}

var errorCodes = map[ErrorCode]Error{
	ErrAccessDenied: {
		ErrCode:        ErrAccessDenied,
		Code:           "AccessDenied",
		Description:    "Access Denied.",
		HTTPStatusCode: http.StatusForbidden,
	},
	ErrInvalidArgument: {
		ErrCode:        ErrInvalidArgument,
		Code:           "InvalidArgument",
		Description:    "Invalid Argument",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInvalidRequest: {
		ErrCode:        ErrInvalidRequest,
		Code:           "InvalidRequest",
		Description:    "Invalid Request",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrMalformedACL: {
		ErrCode:        ErrMalformedACL,
		Code:           "MalformedACLError",
		Description:    "The XML you provided was not well-formed or did not validate against our published schema.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrMalformedPolicy: {
		ErrCode:        ErrMalformedPolicy,
		Code:           "MalformedPolicy",
		Description:    "Policy has invalid resource.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrMalformedXML: {
		ErrCode:        ErrMalformedXML,
		Code:           "MalformedXML",
		Description:    "The XML you provided was not well-formed or did not validate against our published schema.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrMissingSecurityHeader: {
		ErrCode:        ErrMissingSecurityHeader,
		Code:           "MissingSecurityHeader",
		Description:    "Your request was missing a required header.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrUnexpectedContent: {
		ErrCode:        ErrUnexpectedContent,
		Code:           "UnexpectedContent",
		Description:    "This request contains unsupported content.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrNoSuchBucket: {
		ErrCode:        ErrNoSuchBucket,
		Code:           "NoSuchBucket",
		Description:    "The specified bucket does not exist.",
		HTTPStatusCode: http.StatusNotFound,
	},
	ErrNoSuchKey: {
		ErrCode:        ErrNoSuchKey,
		Code:           "NoSuchKey",
		Description:    "The specified key does not exist.",
		HTTPStatusCode: http.StatusNotFound,
	},
	ErrNoSuchBucketPolicy: {
		ErrCode:        ErrNoSuchBucketPolicy,
		Code:           "NoSuchBucketPolicy",
		Description:    "The bucket policy does not exist.",
		HTTPStatusCode: http.StatusNotFound,
	},
	ErrNoSuchTagSet: {
		ErrCode:        ErrNoSuchTagSet,
		Code:           "NoSuchTagSet",
		Description:    "The TagSet does not exist.",
		HTTPStatusCode: http.StatusNotFound,
	},
	ErrNotImplemented: {
		ErrCode:        ErrNotImplemented,
		Code:           "NotImplemented",
		Description:    "A header you provided implies functionality that is not implemented.",
		HTTPStatusCode: http.StatusNotImplemented,
	},
	ErrInternalError: {
		ErrCode:        ErrInternalError,
		Code:           "InternalError",
		Description:    "We encountered an internal error, please try again.",
		HTTPStatusCode: http.StatusInternalServerError,
	},
	ErrOperationMaxedOut: {
		ErrCode:        ErrOperationMaxedOut,
		Code:           "SlowDown",
		Description:    "A timeout occurred while trying to lock a resource, please reduce your request rate.",
		HTTPStatusCode: http.StatusServiceUnavailable,
	},
	ErrUnknownAPIRequest: {
		ErrCode:        ErrUnknownAPIRequest,
		Code:           "UnknownAPIRequest",
		Description:    "Unknown API request.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrAuthorizationHeaderMalformed: {
		ErrCode:        ErrAuthorizationHeaderMalformed,
		Code:           "AuthorizationHeaderMalformed",
		Description:    "The authorization header is malformed; the region is wrong.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInvalidAccessKeyID: {
		ErrCode:        ErrInvalidAccessKeyID,
		Code:           "InvalidAccessKeyId",
		Description:    "The access key ID you provided does not exist in our records.",
		HTTPStatusCode: http.StatusForbidden,
	},
	ErrSignatureDoesNotMatch: {
		ErrCode:        ErrSignatureDoesNotMatch,
		Code:           "SignatureDoesNotMatch",
		Description:    "The request signature we calculated does not match the signature you provided. Check your key and signing method.",
		HTTPStatusCode: http.StatusForbidden,
	},
}

// GetAPIError provides the API error corresponding to the given code.
func GetAPIError(code ErrorCode) Error {
	if err, ok := errorCodes[code]; ok {
		return err
	}
	return errorCodes[ErrInternalError]
}

// IsS3Error checks if the provided error is of the given code.
func IsS3Error(err error, code ErrorCode) bool {
	e, ok := err.(Error)
	return ok && e.ErrCode == code
}
