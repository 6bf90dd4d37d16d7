package usecase

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// 全フィールドをダブルクォートで囲み、中の " は "" にする。改行はCRLF
type csvBuilder struct {
	buf bytes.Buffer
}

func (b *csvBuilder) row(fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.buf.WriteByte(',')
		}
		b.buf.WriteByte('"')
		b.buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.buf.WriteByte('"')
	}
	b.buf.WriteString("\r\n")
}

func (b *csvBuilder) bytes() []byte {
	return b.buf.Bytes()
}

// 最小単位（セント）を小数2桁で
func formatMoney(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
