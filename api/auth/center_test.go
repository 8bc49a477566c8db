package auth

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
	"github.com/stretchr/testify/require"
)

var testAccounts = []Account{
	{
		AccessKeyID: "AKIDEXAMPLE",
		SecretKey:   "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		UserID:      "test:tester",
		DisplayName: "tester",
	},
}

func TestAuthHeaderParse(t *testing.T) {
	defaultHeader := "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20210809/us-east-1/s3/aws4_request, SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature=2811ccb9e242f41426738fb1f"

	center := &center{
		reg: &regexpSubmatcher{re: authorizationFieldRegexp},
	}

	for _, tc := range []struct {
		header   string
		err      error
		expected *authHeader
	}{
		{
			header: defaultHeader,
			err:    nil,
			expected: &authHeader{
				AccessKeyID:  "AKIDEXAMPLE",
				Service:      "s3",
				Region:       "us-east-1",
				SignatureV4:  "2811ccb9e242f41426738fb1f",
				SignedFields: []string{"host", "x-amz-content-sha256", "x-amz-date"},
				Date:         "20210809",
			},
		},
		{
			header:   strings.ReplaceAll(defaultHeader, "Signature=2811ccb9e242f41426738fb1f", ""),
			err:      s3errors.GetAPIError(s3errors.ErrAuthorizationHeaderMalformed),
			expected: nil,
		},
	} {
		authHeader, err := center.parseAuthHeader(tc.header)
		require.Equal(t, tc.err, err, tc.header)
		require.Equal(t, tc.expected, authHeader, tc.header)
	}
}

func TestAuthenticateSignedRequest(t *testing.T) {
	c := New(testAccounts)

	req := httptest.NewRequest("GET", "http://localhost:8080/test-bucket?acl", nil)

	signTime, err := time.Parse("20060102T150405Z", "20210809T172945Z")
	require.NoError(t, err)
	req.Header.Set("X-Amz-Date", "20210809T172945Z")

	awsCreds := credentials.NewStaticCredentials(testAccounts[0].AccessKeyID, testAccounts[0].SecretKey, "")
	signer := v4.NewSigner(awsCreds)
	signer.DisableURIPathEscaping = true
	_, err = signer.Sign(req, nil, "s3", "us-east-1", signTime)
	require.NoError(t, err)

	acc, err := c.Authenticate(req)
	require.NoError(t, err)
	require.Equal(t, "test:tester", acc.UserID)
	require.Equal(t, "tester", acc.Name())
}

func TestAuthenticateNoHeader(t *testing.T) {
	c := New(testAccounts)

	req := httptest.NewRequest("GET", "http://localhost:8080/test-bucket", nil)

	_, err := c.Authenticate(req)
	require.ErrorIs(t, err, ErrNoAuthorizationHeader)
}

func TestAuthenticateUnknownKey(t *testing.T) {
	c := New(testAccounts)

	req := httptest.NewRequest("GET", "http://localhost:8080/test-bucket", nil)
	req.Header.Set("X-Amz-Date", "20210809T172945Z")
	req.Header.Set("Authorization",
		"AWS4-HMAC-SHA256 Credential=UNKNOWNKEY/20210809/us-east-1/s3/aws4_request, SignedHeaders=host;x-amz-date, Signature=deadbeef")

	_, err := c.Authenticate(req)
	require.Equal(t, s3errors.GetAPIError(s3errors.ErrInvalidAccessKeyID), err)
}

func TestAuthenticateBadSignature(t *testing.T) {
	c := New(testAccounts)

	req := httptest.NewRequest("GET", "http://localhost:8080/test-bucket?acl", nil)

	signTime, err := time.Parse("20060102T150405Z", "20210809T172945Z")
	require.NoError(t, err)
	req.Header.Set("X-Amz-Date", "20210809T172945Z")

	awsCreds := credentials.NewStaticCredentials(testAccounts[0].AccessKeyID, "wrong-secret", "")
	signer := v4.NewSigner(awsCreds)
	signer.DisableURIPathEscaping = true
	_, err = signer.Sign(req, nil, "s3", "us-east-1", signTime)
	require.NoError(t, err)

	_, err = c.Authenticate(req)
	require.Equal(t, s3errors.GetAPIError(s3errors.ErrSignatureDoesNotMatch), err)
}

func TestSignStr(t *testing.T) {
	signTime, err := time.Parse("20060102T150405Z", "20210809T172945Z")
	require.NoError(t, err)

	got := signStr("secret", "s3", "us-east-1", signTime, "policy-to-sign")
	again := signStr("secret", "s3", "us-east-1", signTime, "policy-to-sign")
	require.Equal(t, got, again)
	require.Len(t, got, 64)

	other := signStr("other-secret", "s3", "us-east-1", signTime, "policy-to-sign")
	require.NotEqual(t, got, other)
}
