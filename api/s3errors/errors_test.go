package s3errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAPIError(t *testing.T) {
	err := GetAPIError(ErrAccessDenied)
	require.Equal(t, "AccessDenied", err.Code)
	require.Equal(t, http.StatusForbidden, err.HTTPStatusCode)

	// unknown codes fall back to InternalError
	err = GetAPIError(ErrorCode(-1))
	require.Equal(t, "InternalError", err.Code)
}

func TestIsS3Error(t *testing.T) {
	require.True(t, IsS3Error(GetAPIError(ErrNoSuchBucketPolicy), ErrNoSuchBucketPolicy))
	require.False(t, IsS3Error(GetAPIError(ErrNoSuchBucketPolicy), ErrAccessDenied))
	require.False(t, IsS3Error(errors.New("plain"), ErrAccessDenied))
}

func TestErrorIn(t *testing.T) {
	err := GetAPIError(ErrMalformedACL)
	require.True(t, err.In(ErrMalformedXML, ErrMalformedACL))
	require.False(t, err.In(ErrMalformedXML))
}

func BenchmarkErrCode(b *testing.B) {
	err := GetAPIError(ErrNoSuchKey)

	for i := 0; i < b.N; i++ {
		if IsS3Error(err, ErrNoSuchKey) {
			_ = err
		}
	}
}
