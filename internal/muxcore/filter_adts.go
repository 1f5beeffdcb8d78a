package muxcore

import "github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"

// adtsFilter prepends a 7-byte ADTS header (no CRC) to each raw AAC access
// unit, sized from the track's AudioSpecificConfig. Downstream filters (and
// the buffer filter's PES-payload accounting in particular) see the ADTS
// framing as part of the frame's byte size, matching HLS audio's on-the-wire
// shape even though the terminal packetizer re-derives its own ADTS framing
// from the raw AU when handing data to the MPEG-TS codec.
type adtsFilter struct {
	baseFilter
	config *mpeg4audio.AudioSpecificConfig
}

func newADTSFilter(next Filter) *adtsFilter {
	return &adtsFilter{baseFilter: baseFilter{next: next}}
}

func (f *adtsFilter) SetMediaInfo(info MediaInfo) error {
	f.config = info.AACConfig
	return f.next.SetMediaInfo(info)
}

func (f *adtsFilter) StartFrame(of OutputFrame) error {
	f.of = of
	f.reset()
	return nil
}

func (f *adtsFilter) Write(buf []byte) error {
	f.buf = append(f.buf, buf...)
	return nil
}

func (f *adtsFilter) FlushFrame(isLast bool) error {
	framed := f.buf
	if f.config != nil {
		header := adtsHeader(f.config, len(f.buf))
		framed = append(header, f.buf...)
	}

	of := f.of
	of.Size = uint32(len(framed))
	if err := f.next.StartFrame(of); err != nil {
		return err
	}
	if err := f.next.Write(framed); err != nil {
		return err
	}
	return f.next.FlushFrame(isLast)
}

func (f *adtsFilter) SimulatedStartFrame(of OutputFrame) error {
	f.of = of
	of.Size += adtsHeaderSize
	return f.next.SimulatedStartFrame(of)
}

func (f *adtsFilter) SimulatedWrite(size uint32) error {
	return f.next.SimulatedWrite(size + adtsHeaderSize)
}

func (f *adtsFilter) SimulatedFlushFrame(isLast bool) error {
	return f.next.SimulatedFlushFrame(isLast)
}

func (f *adtsFilter) SimulationSupported(info MediaInfo) bool {
	return true
}

const adtsHeaderSize = 7

// adtsHeader builds a 7-byte ADTS header (protection_absent=1, no CRC) for
// an AAC-LC frame of the given raw payload length.
func adtsHeader(cfg *mpeg4audio.AudioSpecificConfig, payloadLen int) []byte {
	frameLen := payloadLen + adtsHeaderSize
	profile := byte(1) // AAC LC object type minus one, per ADTS encoding
	if cfg.Type != 0 {
		profile = byte(cfg.Type) - 1
	}
	sampleRateIndex := adtsSampleRateIndex(cfg.SampleRate)
	channelConfig := byte(cfg.ChannelCount)

	h := make([]byte, adtsHeaderSize)
	h[0] = 0xFF
	h[1] = 0xF1 // MPEG-4, layer 0, protection absent
	h[2] = (profile << 6) | (sampleRateIndex << 2) | (channelConfig >> 2)
	h[3] = (channelConfig&0x03)<<6 | byte(frameLen>>11)
	h[4] = byte(frameLen >> 3)
	h[5] = byte(frameLen<<5) | 0x1F
	h[6] = 0xFC
	return h
}

var adtsSampleRates = []int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

func adtsSampleRateIndex(rate int) byte {
	for i, r := range adtsSampleRates {
		if r == rate {
			return byte(i)
		}
	}
	return 4 // default to 44100 if unrecognized
}
