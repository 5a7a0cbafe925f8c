package screen

import (
	"fmt"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const quietZone = 2

func encodeQR(content string) (barcode.Barcode, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encoding QR code: %w", err)
	}
	return code, nil
}

func isDark(c color.Color) bool {
	return color.GrayModel.Convert(c).(color.Gray).Y < 128
}

// RenderQR draws content as a QR code with half-block characters, two
// modules per text row. invert swaps light and dark for dark-background terminals.
func RenderQR(w io.Writer, content string, invert bool) error {
	code, err := encodeQR(content)
	if err != nil {
		return err
	}

	b := code.Bounds()
	size := b.Dx()
	dark := func(x, y int) bool {
		if x < 0 || y < 0 || x >= size || y >= size {
			return invert
		}
		return isDark(code.At(b.Min.X+x, b.Min.Y+y)) != invert
	}

	var sb strings.Builder
	for y := -quietZone; y < size+quietZone; y += 2 {
		for x := -quietZone; x < size+quietZone; x++ {
			top, bottom := dark(x, y), dark(x, y+1)
			switch {
			case top && bottom:
				sb.WriteString("█")
			case top:
				sb.WriteString("▀")
			case bottom:
				sb.WriteString("▄")
			default:
				sb.WriteString(" ")
			}
		}
		sb.WriteString("\n")
	}
	_, err = io.WriteString(w, sb.String())
	return err
}

// WriteQRPNG writes content as a px by px PNG image.
func WriteQRPNG(w io.Writer, content string, px int) error {
	code, err := encodeQR(content)
	if err != nil {
		return err
	}
	scaled, err := barcode.Scale(code, px, px)
	if err != nil {
		return fmt.Errorf("scaling QR code: %w", err)
	}
	if err := png.Encode(w, scaled); err != nil {
		return fmt.Errorf("writing PNG: %w", err)
	}
	return nil
}
