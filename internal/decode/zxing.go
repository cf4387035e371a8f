// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package decode

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Supported symbology families.
const (
	FormatQR      = "qr"
	FormatEAN     = "ean"
	FormatUPC     = "upc"
	FormatCode128 = "code128"
)

// ZXing returns a decode primitive that tries the readers for formats in
// order and reports the first hit.
func ZXing(formats ...string) (Func, error) {
	if len(formats) == 0 {
		return nil, errors.New("no decode formats")
	}
	var makers []func() gozxing.Reader
	for _, f := range formats {
		switch f {
		case FormatQR:
			makers = append(makers, qrcode.NewQRCodeReader)
		case FormatEAN:
			makers = append(makers, oned.NewEAN13Reader, oned.NewEAN8Reader)
		case FormatUPC:
			makers = append(makers, oned.NewUPCAReader, oned.NewUPCEReader)
		case FormatCode128:
			makers = append(makers, oned.NewCode128Reader)
		default:
			return nil, fmt.Errorf("unsupported decode format %q", f)
		}
	}

	return func(pixels []byte, width, height int, opts Options) (*Candidate, error) {
		img := &image.Gray{Pix: pixels, Stride: width, Rect: image.Rect(0, 0, width, height)}
		bmp, err := gozxing.NewBinaryBitmapFromImage(img)
		if err != nil {
			return nil, fmt.Errorf("binarize: %w", err)
		}

		var hints map[gozxing.DecodeHintType]interface{}
		if opts.TryHarder {
			hints = map[gozxing.DecodeHintType]interface{}{gozxing.DecodeHintType_TRY_HARDER: true}
		}

		var lastErr error
		for _, mk := range makers {
			res, err := mk().Decode(bmp, hints)
			if err == nil {
				return &Candidate{Value: res.GetText(), Geometry: quad(res.GetResultPoints())}, nil
			}
			var nf gozxing.NotFoundException
			if !errors.As(err, &nf) {
				lastErr = err
			}
		}
		// Checksum and format errors still mean nothing usable was found.
		return nil, lastErr
	}, nil
}

// quad expands the reader's result points into four corners.
func quad(pts []gozxing.ResultPoint) [4]Point {
	var q [4]Point
	ps := make([]Point, 0, len(pts))
	for _, p := range pts {
		if p == nil {
			continue
		}
		ps = append(ps, Point{X: p.GetX(), Y: p.GetY()})
	}
	switch {
	case len(ps) >= 4:
		copy(q[:], ps[:4])
	case len(ps) == 3:
		// bottom-left, top-left, top-right finder patterns
		q[0], q[1], q[2] = ps[0], ps[1], ps[2]
		q[3] = Point{X: ps[0].X + ps[2].X - ps[1].X, Y: ps[0].Y + ps[2].Y - ps[1].Y}
	case len(ps) == 2:
		// linear codes report the scan line ends
		q[0], q[1], q[2], q[3] = ps[0], ps[1], ps[1], ps[0]
	case len(ps) == 1:
		q[0], q[1], q[2], q[3] = ps[0], ps[0], ps[0], ps[0]
	}
	return q
}
