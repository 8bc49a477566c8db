package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegexpSubmatcher(t *testing.T) {
	target := "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20210809/us-east-1/s3/aws4_request, SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature=2811ccb9e242f41426738fb1fa6a456ef37c63505da1a160f3d76a4f51b17581"

	subMatcher := &regexpSubmatcher{re: authorizationFieldRegexp}

	submatches := subMatcher.getSubmatches(target)
	require.Len(t, submatches, 6)
	require.Equal(t, "AKIDEXAMPLE", submatches["access_key_id"])
	require.Equal(t, "20210809", submatches["date"])
	require.Equal(t, "us-east-1", submatches["region"])
	require.Equal(t, "s3", submatches["service"])

	require.Empty(t, subMatcher.getSubmatches("not an authorization header"))
}
