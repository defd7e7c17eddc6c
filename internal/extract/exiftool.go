package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aivid/internal/evidence"
)

// ExifTool extracts XMP/EXIF/IPTC tag evidence through the external
// tag-reading tool. Of particular interest is the XMP digital source
// type, which some generators write alongside or instead of a
// provenance manifest.
type ExifTool struct {
	path    string
	timeout time.Duration
}

// NewExifTool returns the tag-reading extractor.
func NewExifTool(path string, timeout time.Duration) *ExifTool {
	if path == "" {
		path = "exiftool"
	}
	return &ExifTool{path: path, timeout: timeout}
}

func (x *ExifTool) Name() string    { return "exiftool" }
func (x *ExifTool) Priority() int   { return 30 }
func (x *ExifTool) Available() bool { return toolAvailable(x.path) }

func (x *ExifTool) Extract(ctx context.Context, path string, set *evidence.Set) error {
	out, err := runTool(ctx, x.timeout, x.path, "-json", "-n", "-G1", "-s", path)
	if err != nil {
		return err
	}

	// exiftool wraps the single-file result in a one-element array.
	var results []map[string]any
	if err := json.Unmarshal(out, &results); err != nil {
		return fmt.Errorf("parse exiftool output: %w", err)
	}
	if len(results) == 0 {
		return nil
	}
	tags := results[0]

	if v := firstString(tags, "XMP-xmp:CreatorTool", "XMP-xmp:CreateTool"); v != "" {
		set.Add(evidence.KindCreatorTool, v, x.Name())
	}
	if v := firstString(tags, "QuickTime:Software", "XMP-tiff:Software", "Keys:Software"); v != "" {
		set.Add(evidence.KindSoftwareTag, v, x.Name())
	}
	if v := firstString(tags, "XMP-iptcExt:DigitalSourceType", "XMP-iptcCore:DigitalSourceType"); v != "" {
		set.Add(evidence.KindDigitalSourceType, v, x.Name())
	}
	if v := firstString(tags, "QuickTime:HandlerDescription"); v != "" {
		set.Add(evidence.KindHandlerName, v, x.Name())
	}
	return nil
}

func firstString(tags map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := tags[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
