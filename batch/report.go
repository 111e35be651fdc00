package batch

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ItemRecord is the outcome of one BatchItem.
type ItemRecord struct {
	_ struct{} `cbor:",toarray"`

	ID           string `cbor:"1,keyasint"`
	InputPath    string `cbor:"2,keyasint"`
	OutputPath   string `cbor:"3,keyasint"`
	Succeeded    bool   `cbor:"4,keyasint"`
	Error        string `cbor:"5,keyasint"`
	OriginalSize int64  `cbor:"6,keyasint"`
	BytesWritten int64  `cbor:"7,keyasint"`
}

// BatchReport is the aggregate outcome of one Run call.
type BatchReport struct {
	_ struct{} `cbor:",toarray"`

	Succeeded int64        `cbor:"1,keyasint"`
	Failed    int64        `cbor:"2,keyasint"`
	Items     []ItemRecord `cbor:"3,keyasint"`
}

// Pack serializes the report as a BASE64URL-wrapped CBOR payload, following
// the hashutil password hasher's metadata encoding.
func (r *BatchReport) Pack() (string, error) {
	payload, err := cbor.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("batch: unable to serialize report: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// UnpackBatchReport reverses Pack. r must be a BASE64URL-wrapped CBOR
// payload produced by BatchReport.Pack.
func UnpackBatchReport(r io.Reader) (*BatchReport, error) {
	if r == nil {
		return nil, fmt.Errorf("batch: reader must not be nil")
	}

	report := &BatchReport{}
	dec := cbor.NewDecoder(base64.NewDecoder(base64.RawURLEncoding, r))
	if err := dec.Decode(report); err != nil {
		return nil, fmt.Errorf("batch: unable to decode report: %w", err)
	}
	return report, nil
}
