// Package promptpay builds EMVCo merchant-presented QR payloads for the
// Thai PromptPay rail. The payload is a flat TLV string: two-digit id,
// two-digit length, value, terminated by a CRC-16/CCITT-FALSE checksum
// over everything up to and including the CRC tag+length.
package promptpay

import (
	"fmt"
	"strings"

	"github.com/pwasut/harnkan/internal/domain"
)

const (
	idPayloadFormat       = "00"
	idPointOfInitiation   = "01"
	idMerchantAccountInfo = "29"
	idCurrency            = "53"
	idAmount              = "54"
	idCountry             = "58"
	idCRC                 = "63"

	// Sub-ids inside the merchant account info template.
	subIDApplication = "00"
	subIDPhone       = "01"
	subIDNationalID  = "02"
	subIDEWallet     = "03"

	promptPayAID = "A000000677010111"

	pointStatic  = "11" // reusable QR, amount entered by the payer
	pointDynamic = "12" // one-shot QR with a fixed amount

	currencyTHB = "764"
	countryTH   = "TH"
)

// Target kinds accepted by Build.
const (
	TargetPhone      = "phone"
	TargetNationalID = "national_id"
	TargetEWallet    = "ewallet"
)

func tlv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DetectTarget infers the target kind from a raw value: 15 digits is an
// e-wallet id, 13 digits a national id, anything that normalizes to a
// Thai mobile number a phone. Empty means undetermined.
func DetectTarget(value string) string {
	digits := digitsOf(value)
	switch {
	case len(digits) == 15:
		return TargetEWallet
	case len(digits) == 13 && !strings.HasPrefix(value, "+"):
		return TargetNationalID
	case len(digits) == 10 || (strings.HasPrefix(value, "+66") && len(digits) == 11):
		return TargetPhone
	}
	return ""
}

// normalizePhone converts a Thai mobile number to the 13-character
// 0066-prefixed form PromptPay expects: 0812345678 -> 0066812345678.
func normalizePhone(value string) (string, error) {
	digits := digitsOf(value)
	if strings.HasPrefix(value, "+66") && len(digits) == 11 {
		digits = "0" + digits[2:]
	}
	if len(digits) != 10 || !strings.HasPrefix(digits, "0") {
		return "", &domain.ErrValidation{Field: "target", Message: "phone must be a 10-digit Thai mobile number"}
	}
	return "00" + "66" + digits[1:], nil
}

// Build assembles the QR payload for the given target. When amount is
// positive the QR is dynamic (one-shot, fixed amount, 2 decimals);
// otherwise it is a static reusable QR.
func Build(targetType, target string, amount float64) (string, error) {
	if target == "" {
		return "", &domain.ErrValidation{Field: "target", Message: "required"}
	}
	if targetType == "" {
		targetType = DetectTarget(target)
	}

	var accountSub string
	switch targetType {
	case TargetPhone:
		phone, err := normalizePhone(target)
		if err != nil {
			return "", err
		}
		accountSub = tlv(subIDPhone, phone)
	case TargetNationalID:
		digits := digitsOf(target)
		if len(digits) != 13 {
			return "", &domain.ErrValidation{Field: "target", Message: "national id must have 13 digits"}
		}
		accountSub = tlv(subIDNationalID, digits)
	case TargetEWallet:
		digits := digitsOf(target)
		if len(digits) != 15 {
			return "", &domain.ErrValidation{Field: "target", Message: "e-wallet id must have 15 digits"}
		}
		accountSub = tlv(subIDEWallet, digits)
	default:
		return "", &domain.ErrValidation{Field: "target_type", Message: "must be phone, national_id or ewallet"}
	}

	point := pointStatic
	if amount > 0 {
		point = pointDynamic
	}

	var b strings.Builder
	b.WriteString(tlv(idPayloadFormat, "01"))
	b.WriteString(tlv(idPointOfInitiation, point))
	b.WriteString(tlv(idMerchantAccountInfo, tlv(subIDApplication, promptPayAID)+accountSub))
	b.WriteString(tlv(idCurrency, currencyTHB))
	if amount > 0 {
		b.WriteString(tlv(idAmount, fmt.Sprintf("%.2f", amount)))
	}
	b.WriteString(tlv(idCountry, countryTH))

	payload := b.String() + idCRC + "04"
	return payload + fmt.Sprintf("%04X", crc16(payload)), nil
}

// VerifyChecksum reports whether a payload's trailing CRC matches its
// contents.
func VerifyChecksum(payload string) bool {
	if len(payload) < 8 || payload[len(payload)-8:len(payload)-4] != idCRC+"04" {
		return false
	}
	body := payload[:len(payload)-4]
	return fmt.Sprintf("%04X", crc16(body)) == payload[len(payload)-4:]
}

// crc16 implements CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF), the
// checksum mandated by the EMVCo QR spec.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
