package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"aivid/internal/bmff"
	"aivid/internal/c2pa"
	"aivid/internal/evidence"
)

// digitalSourceTypeRe pulls the controlled-vocabulary token out of an
// IPTC digital source type URL embedded in raw manifest bytes.
var digitalSourceTypeRe = regexp.MustCompile(`(?i)digitalsourcetype/([A-Za-z]+)`)

// Container extracts box-derived evidence: brand, handler name,
// encoder tag, and the presence and location of a provenance manifest.
//
// When the external provenance tool is not installed, Container is the
// byte-accurate fallback: it scans the located manifest payload for
// vocabulary tokens and known generator markers without decoding the
// manifest structure.
type Container struct {
	// markers are lowercase generator marker strings scanned for in
	// raw manifest bytes.
	markers []string
}

// NewContainer returns the container extractor. markers come from the
// detection knowledge base so the fallback scan and the rule table
// agree on what a known generator looks like.
func NewContainer(markers []string) *Container {
	lowered := make([]string, len(markers))
	for i, m := range markers {
		lowered[i] = strings.ToLower(m)
	}
	return &Container{markers: lowered}
}

func (c *Container) Name() string    { return "container" }
func (c *Container) Priority() int   { return 10 }
func (c *Container) Available() bool { return true }

func (c *Container) Extract(ctx context.Context, path string, set *evidence.Set) error {
	if !bmff.IsContainerFile(path) {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	tree := bmff.Parse(f, fi.Size())
	if tree.Truncated {
		// Partial structure is usable evidence; note it for the
		// diagnostic listing without failing the extractor.
		set.AddFailure(c.Name(), fmt.Sprintf("partial box tree: %s", tree.Reason))
	}

	if brand := tree.MajorBrand(); brand != "" {
		set.Add(evidence.KindMajorBrand, brand, c.Name())
	}
	if handler := tree.HandlerName(); handler != "" {
		set.Add(evidence.KindHandlerName, handler, c.Name())
	}
	if encoder := tree.EncoderTag(); encoder != "" {
		set.Add(evidence.KindEncoderTag, encoder, c.Name())
	}

	res, ok := c2pa.Locate(tree)
	if !ok {
		// Manifest absence is a normal evidence state, not an error.
		return nil
	}
	set.Add(evidence.KindManifestPresent, "true", c.Name())
	set.Add(evidence.KindManifestOffset, strconv.FormatInt(res.Primary.Offset, 10), c.Name())
	for _, aux := range res.Auxiliary {
		set.Add(evidence.KindManifestOffset, strconv.FormatInt(aux.Offset, 10), c.Name())
	}
	c.scanManifest(res.Primary.Data, set)
	return nil
}

// scanManifest records provenance tokens visible in the raw manifest
// bytes. This is a presence scan, not a parse: the structured values
// come from the external provenance tool when it is installed.
func (c *Container) scanManifest(data []byte, set *evidence.Set) {
	if m := digitalSourceTypeRe.FindSubmatch(data); m != nil {
		set.Add(evidence.KindDigitalSourceType, string(m[1]), c.Name())
	} else if idx := strings.Index(strings.ToLower(string(data)), "trainedalgorithmicmedia"); idx >= 0 {
		set.Add(evidence.KindDigitalSourceType, "trainedAlgorithmicMedia", c.Name())
	}

	lower := strings.ToLower(string(data))
	for _, marker := range c.markers {
		if strings.Contains(lower, marker) {
			set.Add(evidence.KindClaimGenerator, marker, c.Name())
			break
		}
	}
}
