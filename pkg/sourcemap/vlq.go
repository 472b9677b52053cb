// SPDX-License-Identifier: MPL-2.0

package sourcemap

import (
	"errors"
	"strings"
)

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
	base64Alphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

var (
	// ErrInvalidVLQ is returned when a mappings string contains a malformed value.
	ErrInvalidVLQ = errors.New("invalid VLQ value")

	base64Index = func() [256]int8 {
		var idx [256]int8
		for i := range idx {
			idx[i] = -1
		}
		for i := range len(base64Alphabet) {
			idx[base64Alphabet[i]] = int8(i)
		}
		return idx
	}()
)

func writeVLQ(sb *strings.Builder, value int) {
	var v int
	if value < 0 {
		v = (-value << 1) | 1
	} else {
		v = value << 1
	}
	for {
		digit := v & vlqBaseMask
		v >>= vlqBaseShift
		if v > 0 {
			digit |= vlqContinuationBit
		}
		sb.WriteByte(base64Alphabet[digit])
		if v == 0 {
			return
		}
	}
}

// readVLQ decodes one value starting at pos and returns it with the
// position of the next unread byte.
func readVLQ(s string, pos int) (int, int, error) {
	var result, shift int
	for {
		if pos >= len(s) {
			return 0, pos, ErrInvalidVLQ
		}
		digit := base64Index[s[pos]]
		if digit < 0 {
			return 0, pos, ErrInvalidVLQ
		}
		pos++
		result += int(digit&vlqBaseMask) << shift
		if digit&vlqContinuationBit == 0 {
			break
		}
		shift += vlqBaseShift
		if shift > 60 {
			return 0, pos, ErrInvalidVLQ
		}
	}
	if result&1 == 1 {
		return -(result >> 1), pos, nil
	}
	return result >> 1, pos, nil
}
