package muxcore

import (
	"encoding/binary"
	"fmt"

	"github.com/bluenviron/mediacommon/v2/pkg/codecs/mpeg4audio"
	"github.com/bluenviron/mediacommon/v2/pkg/formats/mpegts"

	"github.com/streamforge/hlsmux/internal/codec"
)

// Well-known PIDs for the three elementary streams this core ever produces.
const (
	VideoPID uint16 = 0x0100
	AudioPID uint16 = 0x0101
	ID3PID   uint16 = 0x0102
)

// appendWriter adapts a WriteBufferQueue to io.Writer so mediacommon's
// mpegts.Writer can stream straight into the segment's byte sink. Buffers
// are copied because the queue may hold onto them past this call's return.
type appendWriter struct{ queue *WriteBufferQueue }

func (w *appendWriter) Write(p []byte) (int, error) {
	buf := make([]byte, len(p))
	copy(buf, p)
	w.queue.Append(buf)
	return len(p), nil
}

// countingWriter discards bytes, used for the simulation pass where only
// the byte count matters.
type countingWriter struct{ n int64 }

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	return len(p), nil
}

// createVideoCodec maps a codec identity to the mediacommon codec the
// terminal packetizer needs.
func createVideoCodec(v codec.Video) mpegts.Codec {
	if v == codec.VideoH265 {
		return &mpegts.CodecH265{}
	}
	return &mpegts.CodecH264{}
}

// createAudioCodec maps a codec identity to the mediacommon codec the
// terminal packetizer needs, filling in reasonable defaults for fields
// mediacommon requires but the ingest side may not have supplied.
func createAudioCodec(a codec.Audio, aacConfig *mpeg4audio.AudioSpecificConfig) mpegts.Codec {
	switch a {
	case codec.AudioAC3:
		return &mpegts.CodecAC3{SampleRate: 48000, ChannelCount: 2}
	case codec.AudioEAC3:
		return &mpegts.CodecEAC3{SampleRate: 48000, ChannelCount: 6}
	case codec.AudioMP3:
		return &mpegts.CodecMPEG1Audio{}
	case codec.AudioOpus:
		return &mpegts.CodecOpus{ChannelCount: 2}
	default:
		if aacConfig == nil {
			aacConfig = &mpeg4audio.AudioSpecificConfig{
				Type:         mpeg4audio.ObjectTypeAACLC,
				SampleRate:   48000,
				ChannelCount: 2,
			}
		}
		return &mpegts.CodecMPEG4Audio{Config: *aacConfig}
	}
}

// mpegtsFilter is the terminal stage of every stream's chain: it hands
// fully-formed access units to mediacommon's MPEG-TS writer (for video and
// audio) or, for the synthetic ID3 stream (which mediacommon has no codec
// type for), packetizes a minimal hand-rolled PES/TS payload. It tracks the
// byte range each frame occupied in the queue for I-frame playlist
// byte-ranges, and exposes the queue position it has published up to.
type mpegtsFilter struct {
	mediaType MediaType
	queue     *WriteBufferQueue
	writer    *mpegts.Writer
	track     *mpegts.Track
	id3CC     uint8

	of     OutputFrame
	nalus  [][]byte
	rawBuf []byte

	simCounter *countingWriter
	simWriter  *mpegts.Writer
	simTrack   *mpegts.Track
	simOf      OutputFrame
	simSize    uint32
	// simShared is the cumulative byte offset for the whole simulated
	// segment, shared by every stream's terminal filter so interleaved
	// frames from different tracks reconstruct one linear byte layout,
	// exactly like the real shared WriteBufferQueue.
	simShared *int64

	// LastFrameStartPos/EndPos record the byte range of the previously
	// completed frame; CurFrameStartPos/EndPos record the frame in
	// progress. Both are read by the I-frame walker in simulate.go.
	LastFrameStartPos, LastFrameEndPos int64
	CurFrameStartPos, CurFrameEndPos   int64

	// SendQueueOffset is this stream's publish high-water mark, used by
	// the scheduler to compute the minimum offset safe to flush.
	SendQueueOffset int64
}

func newMPEGTSFilter(mediaType MediaType, queue *WriteBufferQueue, writer *mpegts.Writer, track *mpegts.Track) *mpegtsFilter {
	return &mpegtsFilter{mediaType: mediaType, queue: queue, writer: writer, track: track}
}

// initSim sets up this filter's independent simulated writer, a standalone
// mediacommon writer of the same codec pointed at a byte counter instead of
// the real queue, so SimulatedFlushFrame can reproduce real packetization
// overhead without emitting a single real byte. realTrack is nil for the
// synthetic ID3 stream, which has no mediacommon codec to mirror.
func (f *mpegtsFilter) initSim(realTrack *mpegts.Track) error {
	f.simCounter = &countingWriter{}
	if realTrack == nil {
		return nil
	}
	f.simTrack = &mpegts.Track{PID: realTrack.PID, Codec: realTrack.Codec}
	f.simWriter = &mpegts.Writer{W: f.simCounter, Tracks: []*mpegts.Track{f.simTrack}}
	return f.simWriter.Initialize()
}

func (f *mpegtsFilter) SetMediaInfo(info MediaInfo) error { return nil }

func (f *mpegtsFilter) StartFrame(of OutputFrame) error {
	f.of = of
	f.nalus = f.nalus[:0]
	f.rawBuf = f.rawBuf[:0]
	return nil
}

// Write accepts either one NAL unit at a time (video, from the annexb
// filter) or one already-framed audio/ID3 payload.
func (f *mpegtsFilter) Write(buf []byte) error {
	if f.mediaType == MediaVideo {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		f.nalus = append(f.nalus, cp)
		return nil
	}
	f.rawBuf = append(f.rawBuf, buf...)
	return nil
}

func (f *mpegtsFilter) FlushFrame(isLast bool) error {
	f.LastFrameStartPos, f.LastFrameEndPos = f.CurFrameStartPos, f.CurFrameEndPos
	f.CurFrameStartPos = f.queue.CurOffset()

	var err error
	switch f.mediaType {
	case MediaVideo:
		err = f.writeVideo()
	case MediaAudio:
		err = f.writeAudio()
	default:
		err = f.writeID3()
	}
	if err != nil {
		return err
	}

	f.CurFrameEndPos = f.queue.CurOffset()
	f.SendQueueOffset = f.CurFrameEndPos
	return nil
}

func (f *mpegtsFilter) writeVideo() error {
	if len(f.nalus) == 0 {
		return nil
	}
	switch f.track.Codec.(type) {
	case *mpegts.CodecH265:
		return f.writer.WriteH265(f.track, f.of.PTS, f.of.DTS, f.nalus)
	default:
		return f.writer.WriteH264(f.track, f.of.PTS, f.of.DTS, f.nalus)
	}
}

func (f *mpegtsFilter) writeAudio() error {
	if len(f.rawBuf) == 0 {
		return nil
	}
	switch f.track.Codec.(type) {
	case *mpegts.CodecMPEG4Audio:
		aus := stripADTS(f.rawBuf)
		if len(aus) == 0 {
			return nil
		}
		return f.writer.WriteMPEG4Audio(f.track, f.of.PTS, aus)
	case *mpegts.CodecAC3:
		return f.writer.WriteAC3(f.track, f.of.PTS, f.rawBuf)
	case *mpegts.CodecEAC3:
		return f.writer.WriteEAC3(f.track, f.of.PTS, f.rawBuf)
	case *mpegts.CodecMPEG1Audio:
		return f.writer.WriteMPEG1Audio(f.track, f.of.PTS, [][]byte{f.rawBuf})
	case *mpegts.CodecOpus:
		return f.writer.WriteOpus(f.track, f.of.PTS, [][]byte{f.rawBuf})
	default:
		return fmt.Errorf("muxcore: unsupported audio codec type %T", f.track.Codec)
	}
}

// writeID3 hand-packetizes the ID3 PES payload into 188-byte TS packets.
// mediacommon has no timed-metadata codec type, so this stream is the one
// place the terminal filter builds MPEG-TS framing itself, matching the
// narrow scope §1 carves out for low-level packet assembly.
func (f *mpegtsFilter) writeID3() error {
	if len(f.rawBuf) == 0 {
		return nil
	}
	pes := buildPES(f.of.PTS, f.rawBuf)
	packets := packetizeTS(ID3PID, pes, &f.id3CC)
	for _, pkt := range packets {
		f.queue.Append(pkt)
	}
	return nil
}

func (f *mpegtsFilter) SimulatedStartFrame(of OutputFrame) error {
	f.simOf = of
	f.simSize = 0
	return nil
}

func (f *mpegtsFilter) SimulatedWrite(size uint32) error {
	f.simSize += size
	return nil
}

// SimulatedFlushFrame feeds a zero-filled buffer of the accumulated size
// through the very same writer/codec path as the real frame would take,
// so packetization overhead (PES header, adaptation field, stuffing) is
// reproduced exactly rather than estimated.
func (f *mpegtsFilter) SimulatedFlushFrame(isLast bool) error {
	f.simCounter.n = 0
	payload := make([]byte, f.simSize)

	var err error
	switch f.mediaType {
	case MediaVideo:
		switch f.simTrack.Codec.(type) {
		case *mpegts.CodecH265:
			err = f.simWriter.WriteH265(f.simTrack, f.simOf.PTS, f.simOf.DTS, [][]byte{payload})
		default:
			err = f.simWriter.WriteH264(f.simTrack, f.simOf.PTS, f.simOf.DTS, [][]byte{payload})
		}
	case MediaAudio:
		switch f.simTrack.Codec.(type) {
		case *mpegts.CodecMPEG4Audio:
			err = f.simWriter.WriteMPEG4Audio(f.simTrack, f.simOf.PTS, [][]byte{payload})
		case *mpegts.CodecAC3:
			err = f.simWriter.WriteAC3(f.simTrack, f.simOf.PTS, payload)
		case *mpegts.CodecEAC3:
			err = f.simWriter.WriteEAC3(f.simTrack, f.simOf.PTS, payload)
		case *mpegts.CodecMPEG1Audio:
			err = f.simWriter.WriteMPEG1Audio(f.simTrack, f.simOf.PTS, [][]byte{payload})
		case *mpegts.CodecOpus:
			err = f.simWriter.WriteOpus(f.simTrack, f.simOf.PTS, [][]byte{payload})
		}
	default:
		pes := buildPES(f.simOf.PTS, payload)
		f.simCounter.n += int64(len(packetizeTSFlat(ID3PID, pes)))
	}
	if err != nil {
		return err
	}

	f.LastFrameStartPos, f.LastFrameEndPos = f.CurFrameStartPos, f.CurFrameEndPos
	f.CurFrameStartPos = *f.simShared
	*f.simShared += f.simCounter.n
	f.CurFrameEndPos = *f.simShared
	return nil
}

// resetSim rewinds this filter's simulated byte-range bookkeeping. Called
// once per simulated segment walk, sharing offset with every other stream's
// terminal filter so interleaved frames land on one linear byte layout.
func (f *mpegtsFilter) resetSim(shared *int64) {
	f.simShared = shared
	f.LastFrameStartPos, f.LastFrameEndPos = 0, 0
	f.CurFrameStartPos, f.CurFrameEndPos = 0, 0
}

func (f *mpegtsFilter) SimulationSupported(info MediaInfo) bool { return true }

// stripADTS removes ADTS headers the adts filter added upstream, since
// mediacommon's WriteMPEG4Audio expects raw access units and re-derives its
// own ADTS framing when emitting the PES payload.
func stripADTS(data []byte) [][]byte {
	var frames [][]byte
	offset := 0
	for offset+7 <= len(data) {
		if data[offset] != 0xFF || data[offset+1]&0xF0 != 0xF0 {
			offset++
			continue
		}
		protectionAbsent := data[offset+1]&0x01 != 0
		headerSize := 9
		if protectionAbsent {
			headerSize = 7
		}
		frameLen := int(data[offset+3]&0x03)<<11 | int(data[offset+4])<<3 | int(data[offset+5]>>5)
		if frameLen < headerSize || offset+frameLen > len(data) {
			break
		}
		if raw := data[offset+headerSize : offset+frameLen]; len(raw) > 0 {
			frames = append(frames, raw)
		}
		offset += frameLen
	}
	if len(frames) == 0 && len(data) > 0 {
		return [][]byte{data}
	}
	return frames
}

// buildPES wraps payload in a minimal MPEG-TS PES header carrying only PTS
// (stream_id 0xBD, private stream 1 — the same stream_id HLS uses for ID3
// timed metadata).
func buildPES(pts int64, payload []byte) []byte {
	ptsField := encodePTS(pts, 0x2)
	header := []byte{
		0x00, 0x00, 0x01, 0xBD,
		0, 0, // PES_packet_length, filled below
		0x80, 0x80, 0x05,
	}
	pesLen := len(header) - 6 + len(ptsField) + len(payload)
	header = append(header, ptsField...)
	binary.BigEndian.PutUint16(header[4:6], uint16(pesLen))
	return append(header, payload...)
}

func encodePTS(pts int64, marker byte) []byte {
	b := make([]byte, 5)
	b[0] = marker<<4 | byte((pts>>30)&0x07)<<1 | 0x01
	b[1] = byte(pts >> 22)
	b[2] = byte((pts>>15)&0xFE) | 0x01
	b[3] = byte(pts >> 7)
	b[4] = byte((pts<<1)&0xFE) | 0x01
	return b
}

// packetizeTS splits a PES payload into 188-byte TS packets on pid,
// advancing the caller's continuity counter, and returns them as
// individually-owned buffers ready for WriteBufferQueue.Append.
func packetizeTS(pid uint16, pes []byte, cc *uint8) [][]byte {
	var packets [][]byte
	offset := 0
	first := true
	for offset < len(pes) {
		pkt := make([]byte, 188)
		pkt[0] = 0x47
		pusi := byte(0)
		if first {
			pusi = 0x40
		}
		pkt[1] = pusi | byte(pid>>8)&0x1F
		pkt[2] = byte(pid)

		remaining := len(pes) - offset
		if remaining >= 184 {
			pkt[3] = 0x10 | (*cc & 0x0F)
			copy(pkt[4:], pes[offset:offset+184])
			offset += 184
		} else if remaining == 183 {
			// One byte short: a one-byte adaptation field (length=0, no
			// flags) exactly closes the gap.
			pkt[3] = 0x30 | (*cc & 0x0F)
			pkt[4] = 0x00
			copy(pkt[5:], pes[offset:])
			offset = len(pes)
		} else {
			pkt[3] = 0x30 | (*cc & 0x0F)
			stuffLen := 184 - remaining - 2
			pkt[4] = byte(1 + stuffLen)
			pkt[5] = 0x00
			copy(pkt[6:6+stuffLen], stuffing(stuffLen))
			copy(pkt[6+stuffLen:], pes[offset:])
			offset = len(pes)
		}
		*cc = (*cc + 1) & 0x0F
		packets = append(packets, pkt)
		first = false
	}
	return packets
}

func packetizeTSFlat(pid uint16, pes []byte) []byte {
	var cc uint8
	packets := packetizeTS(pid, pes, &cc)
	var out []byte
	for _, p := range packets {
		out = append(out, p...)
	}
	return out
}

func stuffing(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = 0xFF
	}
	return out
}
