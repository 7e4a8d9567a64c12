// Package einvoice decodes the left-hand QR code printed on Taiwan electronic
// uniform invoices (電子發票證明聯).
//
// The QR payload starts with a fixed-width header (MIG e-invoice QR layout):
//
//	offset  width  field
//	 0      10     invoice number (2 letters + 8 digits)
//	10       7     invoice date, ROC calendar RRRMMDD
//	17       4     random code
//	21       8     sales amount before tax, hexadecimal
//	29       8     total amount including tax, hexadecimal
//	37       8     buyer business ID (00000000 for consumers)
//	45       8     seller business ID
//	53      24     verification code
//
// followed by ":"-separated item data that this package does not interpret.
// The amount reported downstream is the tax-inclusive total at offset 29.
package einvoice

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinPayloadLength is the exclusive lower bound on accepted payload length,
// counted in characters.
const MinPayloadLength = 70

const (
	numberStart, numberEnd     = 0, 10
	dateStart, dateEnd         = 10, 17
	randomStart, randomEnd     = 17, 21
	salesStart, salesEnd       = 21, 29
	totalStart, totalEnd       = 29, 37
	buyerIDStart, buyerIDEnd   = 37, 45
	sellerIDStart, sellerIDEnd = 45, 53

	consumerBuyerID = "00000000"
)

var headerPattern = regexp.MustCompile(`^[A-Z]{2}\d{8}`)

// Payload holds the header fields of an accepted e-invoice QR payload.
type Payload struct {
	InvoiceNumber string
	DateROC       string // RRRMMDD, feed to dateparse
	RandomCode    string
	SalesAmount   string // decimal, before tax; "" when the hex field is malformed
	TotalAmount   string // decimal, tax included; "" when the hex field is malformed
	BuyerID       string
	SellerID      string
}

// Accepts reports whether payload looks like an e-invoice QR header. The
// item data after the header may hold multibyte text; the header itself
// must be ASCII.
func Accepts(payload string) bool {
	return utf8.RuneCountInString(payload) > MinPayloadLength &&
		headerPattern.MatchString(payload) &&
		asciiHeader(payload)
}

func asciiHeader(payload string) bool {
	if len(payload) < sellerIDEnd {
		return false
	}
	for i := 0; i < sellerIDEnd; i++ {
		if payload[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Decode slices the header of payload. ok is false when the payload is not an
// e-invoice QR code; callers then fall back to other recognizers.
func Decode(payload string) (p Payload, ok bool) {
	if !Accepts(payload) {
		return Payload{}, false
	}

	return Payload{
		InvoiceNumber: payload[numberStart:numberEnd],
		DateROC:       payload[dateStart:dateEnd],
		RandomCode:    payload[randomStart:randomEnd],
		SalesAmount:   hexToDecimal(payload[salesStart:salesEnd]),
		TotalAmount:   hexToDecimal(payload[totalStart:totalEnd]),
		BuyerID:       payload[buyerIDStart:buyerIDEnd],
		SellerID:      payload[sellerIDStart:sellerIDEnd],
	}, true
}

// SoldToConsumer reports whether the invoice carries no buyer business ID.
func (p Payload) SoldToConsumer() bool {
	return p.BuyerID == consumerBuyerID
}

// FirstAccepted returns the first payload in payloads that decodes.
func FirstAccepted(payloads []string) (Payload, bool) {
	for _, raw := range payloads {
		if p, ok := Decode(raw); ok {
			return p, true
		}
	}
	return Payload{}, false
}

func hexToDecimal(field string) string {
	v, err := strconv.ParseUint(strings.TrimSpace(field), 16, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(v, 10)
}
