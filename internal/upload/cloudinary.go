// Package upload adapts multipart image uploads onto Cloudinary.
package upload

import (
	"context"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
)

// Result is the normalized view of the storage service's response.
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimetype"`
}

// Uploader pushes one file to remote storage and normalizes the response.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename, mimeType string, size int64) (*Result, error)
}

// Cloudinary is the production Uploader.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary: init")
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, filename, mimeType string, size int64) (*Result, error) {
	res, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: c.folder})
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary: upload")
	}
	if res.Error.Message != "" {
		return nil, errors.Errorf("cloudinary: upload: %s", res.Error.Message)
	}

	// The SDK has shipped both field pairs; take whichever is populated.
	url := res.SecureURL
	if url == "" {
		url = res.URL
	}
	id := res.PublicID
	if id == "" {
		id = res.AssetID
	}
	out := &Result{URL: url, PublicID: id, Size: size, MimeType: mimeType}
	if res.Bytes > 0 {
		out.Size = int64(res.Bytes)
	}
	return out, nil
}
