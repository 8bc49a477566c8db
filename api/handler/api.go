package handler

import (
	"errors"

	"github.com/idrive-online-backup/swift-s3-gw/api"
	"github.com/idrive-online-backup/swift-s3-gw/api/authz"
	"github.com/idrive-online-backup/swift-s3-gw/api/layer"
	"go.uber.org/zap"
)

type (
	handler struct {
		log   *zap.Logger
		obj   *layer.Layer
		authz *authz.Authorizer
		cfg   *Config
	}

	// Config contains data which handler need to keep.
	Config struct {
		// Region reported to clients in ACL and policy related responses.
		Region string
	}
)

var _ api.Handler = (*handler)(nil)

// New creates new api.Handler using given logger, metadata layer and
// authorizer.
func New(log *zap.Logger, obj *layer.Layer, a *authz.Authorizer, cfg *Config) (api.Handler, error) {
	switch {
	case obj == nil:
		return nil, errors.New("empty metadata layer")
	case a == nil:
		return nil, errors.New("empty authorizer")
	case log == nil:
		return nil, errors.New("empty logger")
	}

	return &handler{
		log:   log,
		obj:   obj,
		authz: a,
		cfg:   cfg,
	}, nil
}
