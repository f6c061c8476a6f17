package image

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
)

// syntheticResult renders a deterministic placeholder sized to the request's
// aspect ratio. Reference images fold into the seed so compositions with
// different inputs stay visually distinguishable.
func syntheticResult(req GenerateRequest) Result {
	seed := syntheticSeed(req)
	width, height := syntheticDimensions(req.AspectRatio)
	return Result{
		Data:     renderSyntheticImage(width, height, seed),
		MIMEType: "image/png",
	}
}

func syntheticSeed(req GenerateRequest) string {
	hasher := sha256.New()
	hasher.Write([]byte(req.Prompt))
	hasher.Write([]byte{'|'})
	for _, ref := range req.ReferenceImages {
		sum := sha256.Sum256(ref)
		hasher.Write(sum[:])
	}
	hasher.Write([]byte(req.AspectRatio))
	return hex.EncodeToString(hasher.Sum(nil))[:16]
}

func syntheticDimensions(aspect string) (int, int) {
	size := sizeForAspect(aspect)
	parts := strings.SplitN(size, "*", 2)
	if len(parts) != 2 {
		return 1024, 1024
	}
	width, _ := strconv.Atoi(parts[0])
	height, _ := strconv.Atoi(parts[1])
	if width <= 0 || height <= 0 {
		return 1024, 1024
	}
	return width, height
}

func renderSyntheticImage(width, height int, seed string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	base := colorFromSeed(seed, 0)
	accent := colorFromSeed(seed, 1)
	draw.Draw(img, img.Bounds(), &image.Uniform{base}, image.Point{}, draw.Src)

	stripeHeight := maxInt(32, height/12)
	for y := 0; y < height; y += stripeHeight * 2 {
		stripe := image.Rect(0, y, width, minInt(height, y+stripeHeight))
		draw.Draw(img, stripe, &image.Uniform{accent}, image.Point{}, draw.Over)
	}

	diagonal := colorFromSeed(seed, 2)
	for i := 0; i < maxInt(width, height); i += maxInt(16, width/32) {
		for y := 0; y < height; y++ {
			xx := i + y
			if xx >= width {
				break
			}
			img.Set(xx, y, diagonal)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}

func colorFromSeed(seed string, shift int) color.RGBA {
	if seed == "" {
		seed = "000000"
	}
	doubled := seed + seed
	start := (shift * 6) % len(seed)
	segment := doubled[start : start+6]
	return color.RGBA{
		R: parseHexByte(segment[0:2]),
		G: parseHexByte(segment[2:4]),
		B: parseHexByte(segment[4:6]),
		A: 255,
	}
}

func parseHexByte(s string) uint8 {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0
	}
	return uint8(v)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
