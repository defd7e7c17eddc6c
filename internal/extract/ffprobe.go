package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aivid/internal/evidence"
)

// FFprobe extracts stream and format evidence through the external
// probing tool. Its JSON output is consumed as-is.
type FFprobe struct {
	path    string
	timeout time.Duration
}

// NewFFprobe returns the probing extractor. path may be a bare binary
// name resolved on PATH or an absolute location.
func NewFFprobe(path string, timeout time.Duration) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{path: path, timeout: timeout}
}

func (p *FFprobe) Name() string    { return "ffprobe" }
func (p *FFprobe) Priority() int   { return 20 }
func (p *FFprobe) Available() bool { return toolAvailable(p.path) }

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

type probeStream struct {
	CodecType  string            `json:"codec_type"`
	CodecName  string            `json:"codec_name"`
	SampleRate string            `json:"sample_rate"`
	Tags       map[string]string `json:"tags"`
}

func (p *FFprobe) Extract(ctx context.Context, path string, set *evidence.Set) error {
	out, err := runTool(ctx, p.timeout, p.path,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return err
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return fmt.Errorf("parse ffprobe output: %w", err)
	}

	if probe.Format.FormatName != "" {
		set.Add(evidence.KindFormatName, probe.Format.FormatName, p.Name())
	}
	if enc := probe.Format.Tags["encoder"]; enc != "" {
		set.Add(evidence.KindFormatEncoder, enc, p.Name())
	}

	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if s.CodecName != "" {
				set.Add(evidence.KindVideoCodec, s.CodecName, p.Name())
			}
			if enc := s.Tags["encoder"]; enc != "" {
				set.Add(evidence.KindEncoderTag, enc, p.Name())
			}
		case "audio":
			if s.SampleRate != "" {
				set.Add(evidence.KindAudioSampleRate, s.SampleRate, p.Name())
			}
		}
		if h := s.Tags["handler_name"]; h != "" {
			set.Add(evidence.KindHandlerName, h, p.Name())
		}
	}
	return nil
}
