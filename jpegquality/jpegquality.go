// Package jpegquality estimates the encoding quality of a JPEG image from
// its quantization tables, without decoding pixel data.
package jpegquality

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ErrInvalidJPEG is returned when the data does not start with a JPEG SOI
// marker.
var ErrInvalidJPEG = errors.New("invalid jpeg data")

var errNoQuantTable = errors.New("no quantization table found")

// stdLuminance is the IJG reference luminance quantization table the
// encoder scales by the quality setting.
var stdLuminance = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

// Reader holds the quality estimate for one image.
type Reader struct {
	quality int
}

// New parses JPEG markers from r and estimates the encoding quality.
func New(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	var soi [2]byte
	if _, err := io.ReadFull(br, soi[:]); err != nil {
		return nil, err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return nil, ErrInvalidJPEG
	}

	for {
		marker, err := readMarker(br)
		if err != nil {
			return nil, err
		}
		switch {
		case marker == 0xd9 || marker == 0xda:
			// EOI or start of scan: no table seen
			return nil, errNoQuantTable
		case marker == 0xdb:
			table, err := readQuantTable(br)
			if err != nil {
				return nil, err
			}
			return &Reader{quality: estimate(table)}, nil
		default:
			if err := skipSegment(br); err != nil {
				return nil, err
			}
		}
	}
}

// NewWithBytes is New over an in-memory image.
func NewWithBytes(data []byte) (*Reader, error) {
	return New(bytes.NewReader(data))
}

// Quality returns the estimated encoder quality setting, 1 to 100.
func (r *Reader) Quality() int {
	return r.quality
}

func readMarker(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xff {
			continue
		}
		for {
			m, err := br.ReadByte()
			if err != nil {
				return 0, err
			}
			if m == 0xff {
				continue // fill byte
			}
			return m, nil
		}
	}
}

func segmentLength(br *bufio.Reader) (int, error) {
	var buf [2]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, err
	}
	l := int(buf[0])<<8 | int(buf[1])
	if l < 2 {
		return 0, ErrInvalidJPEG
	}
	return l - 2, nil
}

func skipSegment(br *bufio.Reader) error {
	l, err := segmentLength(br)
	if err != nil {
		return err
	}
	_, err = br.Discard(l)
	return err
}

// readQuantTable returns the 64 coefficients of the luminance table (table
// id 0) from a DQT segment. A segment may carry several tables.
func readQuantTable(br *bufio.Reader) ([64]int, error) {
	var table [64]int
	l, err := segmentLength(br)
	if err != nil {
		return table, err
	}
	data := make([]byte, l)
	if _, err := io.ReadFull(br, data); err != nil {
		return table, err
	}
	for off := 0; off < len(data); {
		precision := data[off] >> 4
		id := data[off] & 0x0f
		off++
		size := 64
		if precision != 0 {
			size = 128
		}
		if off+size > len(data) {
			return table, ErrInvalidJPEG
		}
		if id == 0 {
			for i := 0; i < 64; i++ {
				if precision == 0 {
					table[i] = int(data[off+i])
				} else {
					table[i] = int(data[off+2*i])<<8 | int(data[off+2*i+1])
				}
			}
			return table, nil
		}
		off += size
	}
	return table, errNoQuantTable
}

// estimate inverts the IJG scaling formula. The encoder derives each
// coefficient as max(1, (scale*std+50)/100) with scale = 5000/q for q below
// 50 and 200-2q otherwise, so the ratio of coefficient sums recovers the
// scale factor.
func estimate(table [64]int) int {
	sum, base := 0, 0
	for i := 0; i < 64; i++ {
		sum += table[i]
		base += stdLuminance[i]
	}
	if sum == 0 || base == 0 {
		return 100
	}
	scale := (100*sum - 50*64) / base
	var q int
	if scale <= 0 {
		q = 100
	} else if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
