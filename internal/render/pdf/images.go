package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/url"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// barcodePixels is the raster resolution barcodes are encoded at before
// gofpdf scales them into the element box.
const barcodePixels = 400

// encodeBarcode renders value as a PNG of the given symbology.
func encodeBarcode(kind, value string, width, height float64) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("empty barcode value")
	}
	var (
		bc  barcode.Barcode
		err error
	)
	switch strings.ToLower(kind) {
	case "", "qr":
		bc, err = qr.Encode(value, qr.M, qr.Auto)
	case "code128":
		bc, err = code128.Encode(value)
	case "code39":
		bc, err = code39.Encode(strings.ToUpper(value), false, true)
	case "ean13":
		bc, err = ean.Encode(value)
	case "upc":
		bc, err = ean.Encode("0" + value)
	default:
		return nil, fmt.Errorf("unsupported barcode type %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s barcode: %w", kind, err)
	}

	w, h := barcodePixels, barcodePixels
	if width > 0 && height > 0 {
		h = int(float64(barcodePixels) * height / width)
		if h < 1 {
			h = 1
		}
	}
	if b := bc.Bounds(); b.Dx() > w {
		w = b.Dx()
	}
	if b := bc.Bounds(); b.Dy() > h {
		h = b.Dy()
	}
	scaled, err := barcode.Scale(bc, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}
	return encodePNG(scaled)
}

// decodedImage is an image payload gofpdf can register directly.
type decodedImage struct {
	Type string
	Data []byte
}

// decodeDataURL reads a base64 or percent-encoded data URL. JPEG, PNG and
// GIF pass through; WebP and BMP are transcoded to PNG.
func decodeDataURL(src string) (*decodedImage, error) {
	if !strings.HasPrefix(src, "data:") {
		return nil, fmt.Errorf("not a data URL")
	}
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL")
	}
	meta, payload := src[len("data:"):comma], src[comma+1:]

	var data []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		meta = strings.TrimSuffix(meta, ";base64")
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}

	switch mime := strings.ToLower(strings.SplitN(meta, ";", 2)[0]); mime {
	case "image/png":
		return &decodedImage{Type: "PNG", Data: data}, nil
	case "image/jpeg", "image/jpg":
		return &decodedImage{Type: "JPG", Data: data}, nil
	case "image/gif":
		return &decodedImage{Type: "GIF", Data: data}, nil
	case "image/webp":
		return transcode(webp.Decode, data)
	case "image/bmp", "image/x-ms-bmp":
		return transcode(bmp.Decode, data)
	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("unsupported image type %q", mime)
		}
		out, err := encodePNG(img)
		if err != nil {
			return nil, err
		}
		return &decodedImage{Type: "PNG", Data: out}, nil
	}
}

func transcode(decode func(r io.Reader) (image.Image, error), data []byte) (*decodedImage, error) {
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	out, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	return &decodedImage{Type: "PNG", Data: out}, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
