package view

import (
	"math"
	"strconv"

	"github.com/studyvault/notesdash/internal/constants"
	"github.com/studyvault/notesdash/internal/models"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count in base 1024 with at most two
// decimals and no trailing zeros: 0 -> "0 Bytes", 1536 -> "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := 0
	div := int64(1)
	for i < len(sizeUnits)-1 && bytes >= div*1024 {
		div *= 1024
		i++
	}
	v := float64(bytes) / float64(div)
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// FormatDate renders an upload timestamp as a short date.
func FormatDate(s string) string {
	t, err := models.ParseTimestamp(s)
	if err != nil {
		return "Invalid Date"
	}
	return t.Format(constants.TableDateLayout)
}
