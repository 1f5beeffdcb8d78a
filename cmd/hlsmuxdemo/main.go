// Command hlsmuxdemo shows how a host wires the muxcore and playlist
// packages together: it builds a small synthetic single-clip media set (one
// H.264 video track with two key frames), drives InitSegment/Process
// against a file-writing callback, and renders the index playlist that
// would reference the segment it just produced. CLI parsing and
// configuration loading are explicit Non-goals of the core (see
// DESIGN.md); this binary is illustrative scaffolding, not part of the
// muxer's surface, so it uses only the standard flag package rather than
// the teacher's cobra/viper stack.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/streamforge/hlsmux/internal/muxcore"
	"github.com/streamforge/hlsmux/internal/playlist"
)

func main() {
	out := flag.String("out", "segment0.ts", "output segment file path")
	playlistOut := flag.String("playlist", "", "optional index playlist output path")
	flag.Parse()

	if err := run(*out, *playlistOut); err != nil {
		slog.Error("hlsmuxdemo failed", "error", err)
		os.Exit(1)
	}
}

func run(segmentPath, playlistPath string) error {
	ms, videoData := buildDemoMediaSet()

	f, err := os.Create(segmentPath)
	if err != nil {
		return fmt.Errorf("creating segment file: %w", err)
	}
	defer f.Close()

	cb := func(buf []byte) error {
		_, err := f.Write(buf)
		return err
	}

	conf := muxcore.MuxerConf{InterleaveFrames: true}
	enc := muxcore.EncryptionParams{Type: muxcore.EncryptionNone}

	result, err := muxcore.InitSegment(ms, conf, enc, cb)
	if err != nil {
		return fmt.Errorf("init segment: %w", err)
	}
	if len(result.ResponseHeader) > 0 {
		if _, err := f.Write(result.ResponseHeader); err != nil {
			return fmt.Errorf("writing PAT/PMT header: %w", err)
		}
	}
	if result.SizeKnown {
		slog.Info("segment size known ahead of production", "bytes", result.Size)
	}

	if result.Muxer != nil {
		for {
			err := result.Muxer.Process()
			if err == nil {
				break
			}
			if err == muxcore.ErrAgain {
				// In this demo the frames source never suspends, so this
				// branch is unreachable; a real host would wait for its
				// backing I/O here before calling Process again.
				continue
			}
			return fmt.Errorf("processing segment: %w", err)
		}
	}
	_ = videoData // kept alive for clarity; consumed via the frames source

	if playlistPath == "" {
		slog.Info("segment written", "path", segmentPath)
		return nil
	}

	playlistBytes, err := playlist.BuildIndexPlaylist(ms, playlist.DefaultIndexConfig())
	if err != nil {
		return fmt.Errorf("building index playlist: %w", err)
	}
	if err := os.WriteFile(playlistPath, playlistBytes, 0o644); err != nil {
		return fmt.Errorf("writing playlist file: %w", err)
	}
	slog.Info("segment and playlist written", "segment", segmentPath, "playlist", playlistPath)
	return nil
}

// buildDemoMediaSet constructs a single-clip, single-track MediaSet with
// two key frames and three interleaved non-key frames, matching spec.md's
// S1 scenario (2 key frames at DTS 0ms/2000ms, target_duration 4s).
func buildDemoMediaSet() (*muxcore.MediaSet, []byte) {
	// Five frames of fixed-size filler payload; real data would carry
	// Annex-B/AVCC NAL units, but the demo only exercises the pipeline's
	// plumbing, not decodability.
	frameSize := uint32(4096)
	videoData := make([]byte, int(frameSize)*5)

	frames := []muxcore.InputFrame{
		{Size: frameSize, Duration: 500, KeyFrame: true, Offset: 0},
		{Size: frameSize, Duration: 500, KeyFrame: false, Offset: int64(frameSize)},
		{Size: frameSize, Duration: 500, KeyFrame: false, Offset: int64(frameSize) * 2},
		{Size: frameSize, Duration: 500, KeyFrame: false, Offset: int64(frameSize) * 3},
		{Size: frameSize, Duration: 2000, KeyFrame: true, Offset: int64(frameSize) * 4},
	}

	source := muxcore.NewMemorySource(videoData)
	part := &muxcore.FramePart{
		FirstFrame: 0,
		LastFrame:  len(frames) - 1,
		Frames:     frames,
		Source:     source,
	}

	track := &muxcore.Track{
		MediaType: muxcore.MediaVideo,
		Info:      muxcore.MediaInfo{VideoCodec: "h264", Timescale: 1000},
		FirstPart: part,
	}

	clip := &muxcore.Clip{VideoTrack: track}
	part.Clip = clip

	ms := &muxcore.MediaSet{
		Clips: []*muxcore.Clip{clip},
		SegmentDurations: []muxcore.SegmentDurationItem{
			{DurationMillis: 4000, RepeatCount: 1, SegmentIndex: 0},
		},
		PresentationEnd: true,
	}
	return ms, videoData
}
