package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// ThumbnailMaxEdge is the bounding box for generated previews.
const ThumbnailMaxEdge = 320

// CoverResize scales src to cover exactly width x height and center-crops the
// overflow. Aspect ratio is never distorted: the crop window is computed in
// source space with the target's aspect, then scaled in one pass. An image
// already at the target size is returned unchanged.
func CoverResize(src []byte, width, height int) ([]byte, string, error) {
	if width <= 0 || height <= 0 {
		return nil, "", fmt.Errorf("imaging: invalid target %dx%d", width, height)
	}
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, "", errors.New("imaging: empty source image")
	}
	if srcW == width && srcH == height {
		return src, mimeForFormat(format), nil
	}

	crop := coverCrop(bounds, width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)

	out, mime, err := encode(dst, format)
	if err != nil {
		return nil, "", err
	}
	return out, mime, nil
}

// coverCrop returns the centered source rectangle whose aspect matches the
// target box. The window is as large as the source allows, so downscaling is
// preferred and upsampling happens only when the source is smaller than the
// target in some dimension.
func coverCrop(bounds image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := bounds.Dx(), bounds.Dy()
	cropW, cropH := srcW, srcH
	if srcW*height > srcH*width {
		// Source is wider than the target aspect: trim the sides.
		cropW = srcH * width / height
	} else {
		cropH = srcW * height / width
	}
	if cropW < 1 {
		cropW = 1
	}
	if cropH < 1 {
		cropH = 1
	}
	x0 := bounds.Min.X + (srcW-cropW)/2
	y0 := bounds.Min.Y + (srcH-cropH)/2
	return image.Rect(x0, y0, x0+cropW, y0+cropH)
}

// Thumbnail downscales src so its longest edge fits maxEdge, preserving
// aspect ratio. Images already within the box are re-encoded but not
// upscaled.
func Thumbnail(src []byte, maxEdge int) ([]byte, string, error) {
	if maxEdge <= 0 {
		maxEdge = ThumbnailMaxEdge
	}
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, "", errors.New("imaging: empty source image")
	}

	dstW, dstH := srcW, srcH
	if srcW > maxEdge || srcH > maxEdge {
		if srcW >= srcH {
			dstW = maxEdge
			dstH = srcH * maxEdge / srcW
		} else {
			dstH = maxEdge
			dstW = srcW * maxEdge / srcH
		}
	}
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, "", fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

func encode(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	if format == "jpeg" {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", fmt.Errorf("imaging: encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	}
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), "image/png", nil
}

func mimeForFormat(format string) string {
	if format == "jpeg" {
		return "image/jpeg"
	}
	return "image/png"
}
