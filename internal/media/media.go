// Package media stores food images on Cloudinary.
package media

import (
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Seenusharmma/POS-FF/internal/catalog"
)

// Transformation bounds uploads to 800x800 with automatic quality and
// format.
const Transformation = "c_limit,w_800,h_800/q_auto,f_auto"

const callTimeout = 30 * time.Second

// ErrDisabled is returned for uploads when no credentials are configured.
var ErrDisabled = errors.New("image hosting is not configured")

type uploaderAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type Cloudinary struct {
	api    uploaderAPI
	folder string
	log    *zap.Logger
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string, log *zap.Logger) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary client")
	}
	return newWithAPI(&cld.Upload, folder, log), nil
}

func newWithAPI(api uploaderAPI, folder string, log *zap.Logger) *Cloudinary {
	return &Cloudinary{api: api, folder: folder, log: log.Named("media")}
}

func (c *Cloudinary) Upload(ctx context.Context, u catalog.Upload) (catalog.Image, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := c.api.Upload(ctx, u.Body, uploader.UploadParams{
		Folder:         c.folder,
		Transformation: Transformation,
	})
	if err != nil {
		return catalog.Image{}, errors.Wrapf(err, "upload %s", u.Filename)
	}
	if res.Error.Message != "" {
		return catalog.Image{}, errors.Errorf("upload %s: %s", u.Filename, res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return catalog.Image{}, errors.Errorf("upload %s: empty response", u.Filename)
	}
	c.log.Debug("image uploaded", zap.String("public_id", res.PublicID), zap.Int("bytes", res.Bytes))
	return catalog.Image{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Destroy treats an asset that is already gone as destroyed.
func (c *Cloudinary) Destroy(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return errors.Wrapf(err, "destroy %s", publicID)
	}
	if res.Error.Message != "" {
		return errors.Errorf("destroy %s: %s", publicID, res.Error.Message)
	}
	switch res.Result {
	case "ok":
	case "not found":
		c.log.Warn("image already gone", zap.String("public_id", publicID))
	default:
		return errors.Errorf("destroy %s: unexpected result %q", publicID, res.Result)
	}
	return nil
}

// Disabled stands in when no credentials are configured.
type Disabled struct{ Log *zap.Logger }

func (d Disabled) Upload(ctx context.Context, u catalog.Upload) (catalog.Image, error) {
	return catalog.Image{}, ErrDisabled
}

func (d Disabled) Destroy(ctx context.Context, publicID string) error {
	if d.Log != nil {
		d.Log.Warn("image hosting disabled, asset left in place", zap.String("public_id", publicID))
	}
	return nil
}
