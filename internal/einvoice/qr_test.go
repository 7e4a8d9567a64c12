package einvoice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPayload assembles a left-hand QR payload: 1200 before tax, 1260 total.
func buildPayload(number, date, sales, total string) string {
	return number + date + "5798" + sales + total + "00000000" + "24549210" +
		"dYPtSp8KeMkRA0tFqJL/Zw==" + ":**********:2:2:1:咖啡豆:1:1200"
}

func TestDecodeUsesTaxInclusiveTotal(t *testing.T) {
	payload := buildPayload("AB12345678", "1141014", "000004B0", "000004EC")

	p, ok := Decode(payload)
	require.True(t, ok)
	assert.Equal(t, "AB12345678", p.InvoiceNumber)
	assert.Equal(t, "1141014", p.DateROC)
	assert.Equal(t, "5798", p.RandomCode)
	assert.Equal(t, "1200", p.SalesAmount)
	assert.Equal(t, "1260", p.TotalAmount)
	assert.Equal(t, "24549210", p.SellerID)
	assert.True(t, p.SoldToConsumer())
}

func TestDecodeMalformedHexLeavesAmountEmpty(t *testing.T) {
	payload := buildPayload("AB12345678", "1141014", "000004B0", "ZZZZZZZZ")

	p, ok := Decode(payload)
	require.True(t, ok)
	assert.Empty(t, p.TotalAmount)
	assert.Equal(t, "1200", p.SalesAmount)
}

func TestDecodeRejects(t *testing.T) {
	valid := buildPayload("AB12345678", "1141014", "000004B0", "000004EC")

	cases := map[string]string{
		"exactly seventy":  valid[:MinPayloadLength],
		"short":            "AB12345678114101457980000",
		"lowercase prefix": "ab" + valid[2:],
		"digit prefix":     "1B12345678" + valid[10:],
		"continuation":     "**" + strings.Repeat("x", 80),
		"empty":            "",
		"multibyte short":  "AB12345678" + strings.Repeat("發", 25),
		"multibyte header": "AB12345678" + strings.Repeat("發", 70),
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := Decode(payload)
			assert.False(t, ok)
		})
	}
}

func TestDecodeCountsCharacters(t *testing.T) {
	valid := buildPayload("AB12345678", "1141014", "000004B0", "000004EC")
	header := valid[:sellerIDEnd+24]

	// 77 ASCII header bytes plus Chinese item text is accepted.
	p, ok := Decode(header + ":**********:1:1:1:咖啡:1:50")
	require.True(t, ok)
	assert.Equal(t, "1141014", p.DateROC)
	assert.Equal(t, "1260", p.TotalAmount)

	// 60 characters but more than 70 bytes.
	short := valid[:50] + strings.Repeat("發", 10)
	require.Greater(t, len(short), MinPayloadLength)
	_, ok = Decode(short)
	assert.False(t, ok)
}

func TestFirstAcceptedSkipsMultibyteDecoy(t *testing.T) {
	decoy := "AB12345678" + strings.Repeat("發", 25)
	left := buildPayload("XY87654321", "1140101", "00000032", "00000034")

	p, ok := FirstAccepted([]string{decoy, left})
	require.True(t, ok)
	assert.Equal(t, "XY87654321", p.InvoiceNumber)
}

func TestFirstAccepted(t *testing.T) {
	right := "**" + strings.Repeat(":item:1:50", 10)
	left := buildPayload("XY87654321", "1140101", "00000032", "00000034")

	p, ok := FirstAccepted([]string{right, left})
	require.True(t, ok)
	assert.Equal(t, "XY87654321", p.InvoiceNumber)
	assert.Equal(t, "52", p.TotalAmount)

	_, ok = FirstAccepted([]string{right})
	assert.False(t, ok)
	_, ok = FirstAccepted(nil)
	assert.False(t, ok)
}
