package handler

import (
	"net/http"

	"github.com/idrive-online-backup/swift-s3-gw/api"
	"github.com/idrive-online-backup/swift-s3-gw/api/authz"
	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
)

// GetBucketACLHandler handles GET Bucket acl.
func (h *handler) GetBucketACLHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerACL)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "access check failed", reqInfo, err)
		return
	}

	bucketACL, err := h.obj.GetACL(r.Context(), layer.Resource{Bucket: reqInfo.BucketName})
	if err != nil {
		h.logAndSendError(w, "could not fetch bucket acl", reqInfo, err)
		return
	}

	if err = api.EncodeToResponse(w, bucketACL.Document()); err != nil {
		h.logAndSendError(w, "something went wrong", reqInfo, err)
		return
	}
}

// PutBucketACLHandler handles PUT Bucket acl. The access check, the
// grant parsing and the metadata update all happen in the authorizer.
func (h *handler) PutBucketACLHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerACL)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "could not store bucket acl", reqInfo, err)
		return
	}

	api.WriteSuccessResponseHeadersOnly(w)
}

// GetObjectACLHandler handles GET Object acl.
func (h *handler) GetObjectACLHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerACL)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "access check failed", reqInfo, err)
		return
	}

	objectACL, err := h.obj.GetACL(r.Context(), layer.Resource{Bucket: reqInfo.BucketName, Object: reqInfo.ObjectName})
	if err != nil {
		h.logAndSendError(w, "could not fetch object acl", reqInfo, err)
		return
	}

	if err = api.EncodeToResponse(w, objectACL.Document()); err != nil {
		h.logAndSendError(w, "something went wrong", reqInfo, err)
		return
	}
}

// PutObjectACLHandler handles PUT Object acl.
func (h *handler) PutObjectACLHandler(w http.ResponseWriter, r *http.Request) {
	reqInfo := api.GetReqInfo(r.Context())

	req, err := h.authzRequest(r, authz.ControllerACL)
	if err != nil {
		h.logAndSendError(w, "could not read request", reqInfo, err)
		return
	}

	if err = h.authz.Authorize(r.Context(), req, ""); err != nil {
		h.logAndSendError(w, "could not store object acl", reqInfo, err)
		return
	}

	api.WriteSuccessResponseHeadersOnly(w)
}
