package codec

import (
	"encoding/binary"
	"fmt"
)

var startCode = []byte{0, 0, 0, 1}

// AVCConfig is the parsed AVCDecoderConfigurationRecord (ISO/IEC 14496-15
// avcC box) of an H.264 track.
type AVCConfig struct {
	Profile    uint8
	Level      uint8
	LengthSize int
	SPS        [][]byte
	PPS        [][]byte
}

// ParseAVCConfig parses an avcC record.
func ParseAVCConfig(b []byte) (*AVCConfig, error) {
	if len(b) < 7 {
		return nil, fmt.Errorf("%w: avcC too short (%d bytes)", ErrInvalidCodecConfig, len(b))
	}
	if b[0] != 1 {
		return nil, fmt.Errorf("%w: avcC version %d", ErrInvalidCodecConfig, b[0])
	}

	cfg := &AVCConfig{
		Profile:    b[1],
		Level:      b[3],
		LengthSize: int(b[4]&0x03) + 1,
	}
	if cfg.LengthSize == 3 {
		return nil, fmt.Errorf("%w: NAL length size 3", ErrInvalidCodecConfig)
	}

	pos := 5
	numSPS := int(b[pos] & 0x1F)
	pos++
	sps, pos, err := readParameterSets(b, pos, numSPS)
	if err != nil {
		return nil, err
	}
	cfg.SPS = sps

	if pos >= len(b) {
		return nil, fmt.Errorf("%w: missing PPS count", ErrInvalidCodecConfig)
	}
	numPPS := int(b[pos])
	pos++
	pps, _, err := readParameterSets(b, pos, numPPS)
	if err != nil {
		return nil, err
	}
	cfg.PPS = pps
	return cfg, nil
}

func readParameterSets(b []byte, pos, count int) ([][]byte, int, error) {
	sets := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if pos+2 > len(b) {
			return nil, pos, fmt.Errorf("%w: truncated parameter set length", ErrInvalidCodecConfig)
		}
		n := int(binary.BigEndian.Uint16(b[pos:]))
		pos += 2
		if pos+n > len(b) {
			return nil, pos, fmt.Errorf("%w: truncated parameter set", ErrInvalidCodecConfig)
		}
		sets = append(sets, b[pos:pos+n])
		pos += n
	}
	return sets, pos, nil
}

// AnnexB converts a length-prefixed access unit to Annex-B byte stream form.
// When withParams is set the SPS and PPS are prepended, as decoders need
// them before the first slice.
func (c *AVCConfig) AnnexB(sample []byte, withParams bool) ([]byte, error) {
	out := make([]byte, 0, len(sample)+64)
	if withParams {
		for _, ps := range c.SPS {
			out = append(out, startCode...)
			out = append(out, ps...)
		}
		for _, ps := range c.PPS {
			out = append(out, startCode...)
			out = append(out, ps...)
		}
	}

	for pos := 0; pos < len(sample); {
		if pos+c.LengthSize > len(sample) {
			return nil, fmt.Errorf("%w: truncated NAL length at %d", ErrFrameSize, pos)
		}
		var n int
		switch c.LengthSize {
		case 1:
			n = int(sample[pos])
		case 2:
			n = int(binary.BigEndian.Uint16(sample[pos:]))
		default:
			n = int(binary.BigEndian.Uint32(sample[pos:]))
		}
		pos += c.LengthSize
		if n > len(sample)-pos {
			return nil, fmt.Errorf("%w: NAL of %d bytes overruns sample", ErrFrameSize, n)
		}
		out = append(out, startCode...)
		out = append(out, sample[pos:pos+n]...)
		pos += n
	}
	return out, nil
}
