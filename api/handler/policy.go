package handler

import (
	"net/http"

	"github.com/idrive-online-backup/swift-s3-gw/api"
	"github.com/idrive-online-backup/swift-s3-gw/api/authz"
	"github.com/idrive-online-backup/swift-s3-gw/api/s3errors"
)

// GetBucketPolicyHandler handles GET Bucket policy.
func (h *handler) GetBucketPolicyHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerPolicy)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "access check failed", reqInfo, err)
		return
	}

	policy, err := h.obj.GetBucketPolicy(r.Context(), reqInfo.BucketName)
	if err != nil {
		h.logAndSendError(w, "could not fetch bucket policy", reqInfo, err)
		return
	}
	if policy == nil {
		h.logAndSendError(w, "no bucket policy", reqInfo, s3errors.GetAPIError(s3errors.ErrNoSuchBucketPolicy))
		return
	}

	raw, err := policy.Document()
	if err != nil {
		h.logAndSendError(w, "could not encode bucket policy", reqInfo, err)
		return
	}

	api.WriteResponse(w, http.StatusOK, raw, api.MimeJSON)
}

// PutBucketPolicyHandler handles PUT Bucket policy. The access check,
// the document validation and the metadata update all happen in the
// authorizer.
func (h *handler) PutBucketPolicyHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerPolicy)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "could not store bucket policy", reqInfo, err)
		return
	}

	api.WriteResponse(w, http.StatusNoContent, nil, api.MimeNone)
}

// DeleteBucketPolicyHandler handles DELETE Bucket policy.
func (h *handler) DeleteBucketPolicyHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerPolicy)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "could not delete bucket policy", reqInfo, err)
		return
	}

	api.WriteResponse(w, http.StatusNoContent, nil, api.MimeNone)
}
