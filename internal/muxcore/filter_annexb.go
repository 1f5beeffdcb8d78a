package muxcore

import (
	"github.com/bluenviron/mediacommon/v2/pkg/codecs/h264"
)

// H.264/H.265 NAL unit type constants needed to recognize parameter sets
// and keyframes across both codecs.
const (
	h264NALTypeIDR = 5
	h264NALTypeSPS = 7
	h264NALTypePPS = 8

	h265NALTypeVPS     = 32
	h265NALTypeSPS     = 33
	h265NALTypePPS     = 34
	h265NALTypeKeyMin  = 16
	h265NALTypeKeyMax  = 21
)

// annexbFilter converts length-prefixed (AVCC) or raw NAL data into
// Annex-B start-code framing, and injects cached parameter sets (SPS/PPS,
// plus VPS for H.265) ahead of every keyframe so a decoder can always
// resynchronize after a segment boundary.
type annexbFilter struct {
	baseFilter
	isH265 bool

	vps, sps, pps []byte
}

func newAnnexBFilter(next Filter) *annexbFilter {
	return &annexbFilter{baseFilter: baseFilter{next: next}}
}

func (f *annexbFilter) SetMediaInfo(info MediaInfo) error {
	f.isH265 = info.VideoCodec == "h265"
	if len(info.Extradata) > 0 {
		f.learnParameterSets(toNALUnits(info.Extradata))
	}
	return f.next.SetMediaInfo(info)
}

func (f *annexbFilter) learnParameterSets(nalus [][]byte) {
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		if f.isH265 {
			typ := (nalu[0] >> 1) & 0x3F
			switch typ {
			case h265NALTypeVPS:
				f.vps = nalu
			case h265NALTypeSPS:
				f.sps = nalu
			case h265NALTypePPS:
				f.pps = nalu
			}
		} else {
			typ := nalu[0] & 0x1F
			switch typ {
			case h264NALTypeSPS:
				f.sps = nalu
			case h264NALTypePPS:
				f.pps = nalu
			}
		}
	}
}

func (f *annexbFilter) isKeyNAL(nalu []byte) bool {
	if len(nalu) == 0 {
		return false
	}
	if f.isH265 {
		typ := (nalu[0] >> 1) & 0x3F
		return typ >= h265NALTypeKeyMin && typ <= h265NALTypeKeyMax
	}
	return nalu[0]&0x1F == h264NALTypeIDR
}

func (f *annexbFilter) StartFrame(of OutputFrame) error {
	f.of = of
	f.reset()
	return nil
}

func (f *annexbFilter) Write(buf []byte) error {
	f.buf = append(f.buf, buf...)
	return nil
}

func (f *annexbFilter) FlushFrame(isLast bool) error {
	nalus := toNALUnits(f.buf)
	f.learnParameterSets(nalus)

	if f.of.KeyFrame {
		nalus = f.prependParamSets(nalus)
	}

	if err := f.next.StartFrame(f.of); err != nil {
		return err
	}
	for _, nalu := range nalus {
		if err := f.next.Write(nalu); err != nil {
			return err
		}
	}
	return f.next.FlushFrame(isLast)
}

// prependParamSets ensures VPS/SPS/PPS (as applicable) precede the first
// keyframe NAL, skipping sets already present in this access unit.
func (f *annexbFilter) prependParamSets(nalus [][]byte) [][]byte {
	have := map[byte]bool{}
	for _, n := range nalus {
		if len(n) == 0 {
			continue
		}
		if f.isH265 {
			have[(n[0]>>1)&0x3F] = true
		} else {
			have[n[0]&0x1F] = true
		}
	}

	var prefix [][]byte
	if f.isH265 {
		if len(f.vps) > 0 && !have[h265NALTypeVPS] {
			prefix = append(prefix, f.vps)
		}
		if len(f.sps) > 0 && !have[h265NALTypeSPS] {
			prefix = append(prefix, f.sps)
		}
		if len(f.pps) > 0 && !have[h265NALTypePPS] {
			prefix = append(prefix, f.pps)
		}
	} else {
		if len(f.sps) > 0 && !have[h264NALTypeSPS] {
			prefix = append(prefix, f.sps)
		}
		if len(f.pps) > 0 && !have[h264NALTypePPS] {
			prefix = append(prefix, f.pps)
		}
	}
	if len(prefix) == 0 {
		return nalus
	}
	return append(prefix, nalus...)
}

func (f *annexbFilter) SimulatedStartFrame(of OutputFrame) error {
	f.of = of
	return f.next.SimulatedStartFrame(of)
}

func (f *annexbFilter) SimulatedWrite(size uint32) error {
	return f.next.SimulatedWrite(size)
}

func (f *annexbFilter) SimulatedFlushFrame(isLast bool) error {
	return f.next.SimulatedFlushFrame(isLast)
}

// SimulationSupported always reports true: the filter has no view of the
// encryption type, so the SAMPLE-AES case (emulation-prevention bytes
// perturbing NAL sizes) is excluded by MuxerState.computeSimulationSupported.
func (f *annexbFilter) SimulationSupported(info MediaInfo) bool {
	return true
}

// toNALUnits splits data into NAL units, accepting Annex-B start-code
// framing, AVCC length-prefixed framing, or a single raw NAL unit.
func toNALUnits(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}

	if len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 &&
		(data[2] == 0x01 || (data[2] == 0x00 && data[3] == 0x01)) {
		var au h264.AnnexB
		if err := au.Unmarshal(data); err == nil {
			return au
		}
		return [][]byte{data}
	}

	if len(data) >= 4 {
		var au h264.AVCC
		if err := au.Unmarshal(data); err == nil && len(au) > 0 {
			return au
		}
	}

	return [][]byte{data}
}
