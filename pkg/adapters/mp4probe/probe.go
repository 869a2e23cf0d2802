// Package mp4probe reads video metadata from MP4 containers without decoding.
package mp4probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/spf13/afero"

	"github.com/user/videostream/pkg/ports"
)

// Codec names reported in VideoInfo.Codec.
const (
	CodecH264    = "h264"
	CodecHEVC    = "hevc"
	CodecAV1     = "av1"
	CodecVP9     = "vp9"
	CodecUnknown = "unknown"
)

var (
	// ErrNoVideoTrack is returned when the container has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrNotMP4 is returned when the file cannot be parsed as MP4.
	ErrNotMP4 = errors.New("mp4probe: not an mp4 container")
)

// Prober reads MP4 metadata through an afero filesystem.
type Prober struct {
	fs afero.Fs
}

// New creates a Prober on the OS filesystem.
func New() *Prober {
	return NewWithFs(afero.NewOsFs())
}

// NewWithFs creates a Prober reading from fs.
func NewWithFs(fs afero.Fs) *Prober {
	return &Prober{fs: fs}
}

// Probe returns codec, frame rate, frame count and dimensions of the video track.
// Name identifies the prober in logs.
func (p *Prober) Name() string { return "mp4" }

// Probe reads codec, frame rate, sample count and size from the MP4 boxes of path.
func (p *Prober) Probe(ctx context.Context, path string) (ports.VideoInfo, error) {
	if err := ctx.Err(); err != nil {
		return ports.VideoInfo{}, err
	}

	f, err := p.fs.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	info, err := ProbeReader(f)
	if err != nil {
		return ports.VideoInfo{}, err
	}
	info.FileName = path
	return info, nil
}

// ProbeBytes probes MP4 data held in memory.
func ProbeBytes(data []byte) (ports.VideoInfo, error) {
	return ProbeReader(bytes.NewReader(data))
}

// ProbeReader probes MP4 data from reader.
func ProbeReader(reader io.ReadSeeker) (ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("%w: %w", ErrNotMP4, err)
	}

	if mp4File.IsFragmented() {
		return probeFragmented(mp4File)
	}
	return probeProgressive(mp4File)
}

func probeProgressive(mp4File *mp4.File) (ports.VideoInfo, error) {
	if mp4File.Moov == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	trak := videoTrack(mp4File.Moov.Traks)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}

	info := trackInfo(trak)
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stsz != nil {
		info.FrameCount = int(stbl.Stsz.SampleNumber)
	}
	if trak.Mdia.Mdhd != nil {
		info.FPS = FrameRate(trak.Mdia.Mdhd.Timescale, stbl.Stts)
	}
	return info, nil
}

func probeFragmented(mp4File *mp4.File) (ports.VideoInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	moov := mp4File.Init.Moov
	trak := videoTrack(moov.Traks)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	info := trackInfo(trak)

	trackID := trak.Tkhd.TrackID
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var samples int
	var duration uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			full, err := frag.GetFullSamples(trex)
			if err != nil {
				return ports.VideoInfo{}, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range full {
				samples++
				duration += uint64(s.Dur)
			}
		}
	}

	info.FrameCount = samples
	if trak.Mdia.Mdhd != nil && duration > 0 {
		info.FPS = int(float64(samples) * float64(trak.Mdia.Mdhd.Timescale) / float64(duration))
	}
	return info, nil
}

func videoTrack(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			continue
		}
		return trak
	}
	return nil
}

func trackInfo(trak *mp4.TrakBox) ports.VideoInfo {
	info := ports.VideoInfo{Codec: CodecUnknown}
	stsd := trak.Mdia.Minf.Stbl.Stsd
	if stsd == nil {
		return info
	}
	for _, child := range stsd.Children {
		if codec := codecFromType(child.Type()); codec != CodecUnknown {
			info.Codec = codec
		}
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Size = ports.Dimension{Width: int(vse.Width), Height: int(vse.Height)}
		}
	}
	return info
}

func codecFromType(boxType string) string {
	switch boxType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "vp09":
		return CodecVP9
	default:
		return CodecUnknown
	}
}

// FrameRate returns the whole frames per second of a track, truncated, from the
// dominant sample duration in its time-to-sample table. It returns 0 when the
// rate cannot be determined.
func FrameRate(timescale uint32, stts *mp4.SttsBox) int {
	if stts == nil || timescale == 0 {
		return 0
	}
	var delta, most uint32
	for i, count := range stts.SampleCount {
		if i >= len(stts.SampleTimeDelta) {
			break
		}
		if count > most {
			most = count
			delta = stts.SampleTimeDelta[i]
		}
	}
	if delta == 0 {
		return 0
	}
	return int(float64(timescale) / float64(delta))
}

var _ ports.Prober = (*Prober)(nil)
