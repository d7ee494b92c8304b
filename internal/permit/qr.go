package permit

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

const validationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// QRPayload is the document encoded into a gate-pass QR code.
type QRPayload struct {
	PermitID       string `json:"permit_id"`
	ShopName       string `json:"shop_name"`
	WorkType       string `json:"work_type"`
	Location       string `json:"location"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	ValidationCode string `json:"validation_code"`
	VerifyURL      string `json:"verify_url"`
}

// ValidationCode derives a 6-character uppercase code from the permit id.
// FNV-1a, base-32 alphabet; a quick human-eyeball check at the gate, not a
// cryptographic signature.
func ValidationCode(permitID string) string {
	h := fnv.New64a()
	h.Write([]byte(permitID))
	sum := h.Sum64()

	code := make([]byte, 6)
	for i := 5; i >= 0; i-- {
		code[i] = validationCodeAlphabet[sum%32]
		sum /= 32
	}
	return string(code)
}

// NewQRPayload builds the payload for an approved permit.
func NewQRPayload(p *Permit, verifyBaseURL string, now time.Time) *QRPayload {
	return &QRPayload{
		PermitID:       p.PermitID,
		ShopName:       p.ShopName,
		WorkType:       p.WorkType,
		Location:       p.Location,
		StartDate:      p.StartDate.Format(dateLayout),
		EndDate:        p.EndDate.Format(dateLayout),
		Status:         p.EffectiveStatus(now),
		ValidationCode: ValidationCode(p.PermitID),
		VerifyURL:      fmt.Sprintf("%s/verify/%s", verifyBaseURL, p.PermitID),
	}
}

// RenderPNG encodes the payload JSON into a QR PNG of the given size.
func (q *QRPayload) RenderPNG(size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, size)
}
