package pass

import (
	"fmt"

	"rsc.io/qr"
)

// qrScale is the pixel size of one QR module. At 6px a typical token
// renders around 500px square.
const qrScale = 6

// QRCodePNG renders a token as a PNG QR code at the highest error
// correction level, since printed passes get folded and scuffed.
func QRCodePNG(token string) ([]byte, error) {
	code, err := qr.Encode(token, qr.H)
	if err != nil {
		return nil, fmt.Errorf("render pass qr: %w", err)
	}
	code.Scale = qrScale
	return code.PNG(), nil
}
