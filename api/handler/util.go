package handler

import (
	"io"
	"net/http"

	"github.com/idrive-online-backup/swift-s3-gw/api"
	"github.com/idrive-online-backup/swift-s3-gw/api/acl"
	"github.com/idrive-online-backup/swift-s3-gw/api/authz"
	"github.com/idrive-online-backup/swift-s3-gw/internal/misc"
	"go.uber.org/zap"
)

func (h *handler) logAndSendError(w http.ResponseWriter, logText string, reqInfo *api.ReqInfo, err error, additional ...zap.Field) {
	fields := []zap.Field{zap.String("request_id", reqInfo.RequestID),
		zap.String("method", reqInfo.API),
		zap.String("bucket_name", misc.SanitizeString(reqInfo.BucketName)),
		zap.String("object_name", misc.SanitizeString(reqInfo.ObjectName)),
		zap.Error(err)}
	fields = append(fields, additional...)

	h.log.Error(logText, fields...)
	api.WriteErrorResponse(w, reqInfo, err)
}

// authzRequest assembles the authorizer view of the client request. The
// payload is read for verbs that may carry a subresource document.
func (h *handler) authzRequest(r *http.Request, kind authz.ControllerKind) (*authz.Request, error) {
	req := &authz.Request{
		Controller: kind,
		Method:     r.Method,
		Header:     r.Header,
		Query:      r.URL.Query(),
	}

	reqInfo := api.GetReqInfo(r.Context())
	req.Bucket = reqInfo.BucketName
	req.Object = reqInfo.ObjectName

	if acc := api.GetAccount(r.Context()); acc != nil {
		req.User = acc.UserID
	}

	if r.Method == http.MethodPut && r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, acl.MaxBodySize+1))
		if err != nil {
			return nil, err
		}
		req.Body = body
	}

	return req, nil
}
