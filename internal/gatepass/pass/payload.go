package pass

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Payload is the content sealed inside a pass token. It only ever exists
// transiently: the token is what gets stored and printed.
//
// Integer map keys keep the CBOR encoding small, which keeps the QR code
// at a version a phone camera reads reliably.
type Payload struct {
	RequestID   string    `cbor:"1,keyasint"`
	RequesterID string    `cbor:"2,keyasint"`
	Department  string    `cbor:"3,keyasint"`
	VisitDate   time.Time `cbor:"4,keyasint"`
	IssuedAt    time.Time `cbor:"5,keyasint"`
	ExpiresAt   time.Time `cbor:"6,keyasint"`
	Checksum    string    `cbor:"7,keyasint"`
}

var (
	payloadEncMode cbor.EncMode
	payloadDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	payloadEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("pass: cbor encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		IndefLength:       cbor.IndefLengthForbidden,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}
	payloadDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("pass: cbor decoder mode: %v", err))
	}
}

func marshalPayload(p Payload) ([]byte, error) {
	p.VisitDate = p.VisitDate.UTC()
	p.IssuedAt = p.IssuedAt.UTC()
	p.ExpiresAt = p.ExpiresAt.UTC()
	return payloadEncMode.Marshal(p)
}

func unmarshalPayload(data []byte) (Payload, error) {
	var p Payload
	if err := payloadDecMode.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	if p.RequestID == "" {
		return Payload{}, fmt.Errorf("missing request id")
	}
	if p.Checksum == "" {
		return Payload{}, fmt.Errorf("missing checksum")
	}
	if p.ExpiresAt.IsZero() {
		return Payload{}, fmt.Errorf("missing expiry")
	}
	return p, nil
}
