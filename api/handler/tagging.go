package handler

import (
	"net/http"

	"github.com/idrive-online-backup/swift-s3-gw/api"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

// GetObjectTaggingHandler handles GET Object tagging. Tag sets are
// never stored, so the response is always NoSuchTagSet.
func (h *handler) GetObjectTaggingHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())
	h.logAndSendError(w, "no tag set", reqInfo, s3errors.GetAPIError(s3errors.ErrNoSuchTagSet))
}

// PutObjectTaggingHandler handles PUT Object tagging.
func (h *handler) PutObjectTaggingHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())
	h.logAndSendError(w, "object tagging is not supported", reqInfo, s3errors.GetAPIError(s3errors.ErrNotImplemented))
}

// DeleteObjectTaggingHandler handles DELETE Object tagging.
func (h *handler) DeleteObjectTaggingHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())
	h.logAndSendError(w, "object tagging is not supported", reqInfo, s3errors.GetAPIError(s3errors.ErrNotImplemented))
}

// GetBucketTaggingHandler handles GET Bucket tagging.
func (h *handler) GetBucketTaggingHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())
	h.logAndSendError(w, "no tag set", reqInfo, s3errors.GetAPIError(s3errors.ErrNoSuchTagSet))
}

// PutBucketTaggingHandler handles PUT Bucket tagging.
func (h *handler) PutBucketTaggingHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())
	h.logAndSendError(w, "bucket tagging is not supported", reqInfo, s3errors.GetAPIError(s3errors.ErrNotImplemented))
}

// DeleteBucketTaggingHandler handles DELETE Bucket tagging.
func (h *handler) DeleteBucketTaggingHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())
	h.logAndSendError(w, "bucket tagging is not supported", reqInfo, s3errors.GetAPIError(s3errors.ErrNotImplemented))
}
