package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"aivid/internal/evidence"
)

// C2PATool extracts structured provenance evidence through the
// external c2patool binary. It runs after the container extractor, so
// the structured values it appends refine the byte-scan fallback
// rather than replace it — the evidence set is append-only.
type C2PATool struct {
	path    string
	timeout time.Duration
}

// NewC2PATool returns the provenance-tool extractor.
func NewC2PATool(path string, timeout time.Duration) *C2PATool {
	if path == "" {
		path = "c2patool"
	}
	return &C2PATool{path: path, timeout: timeout}
}

func (c *C2PATool) Name() string    { return "c2patool" }
func (c *C2PATool) Priority() int   { return 40 }
func (c *C2PATool) Available() bool { return toolAvailable(c.path) }

type manifestStore struct {
	ActiveManifest string              `json:"active_manifest"`
	Manifests      map[string]manifest `json:"manifests"`
}

type manifest struct {
	ClaimGeneratorInfo []json.RawMessage `json:"claim_generator_info"`
	SignatureInfo      struct {
		Issuer string `json:"issuer"`
	} `json:"signature_info"`
	Assertions []assertion `json:"assertions"`
}

type assertion struct {
	Label string `json:"label"`
	Data  struct {
		Actions []action `json:"actions"`
	} `json:"data"`
}

type action struct {
	Action            string          `json:"action"`
	SoftwareAgent     json.RawMessage `json:"softwareAgent"`
	DigitalSourceType string          `json:"digitalSourceType"`
}

func (c *C2PATool) Extract(ctx context.Context, path string, set *evidence.Set) error {
	out, err := runTool(ctx, c.timeout, c.path, path)
	if err != nil {
		// c2patool exits non-zero for files without a manifest; that
		// is the absent state, not a failure.
		if strings.Contains(err.Error(), "no claim found") || strings.Contains(err.Error(), "No claim found") {
			return nil
		}
		return err
	}

	var store manifestStore
	if err := json.Unmarshal(out, &store); err != nil {
		return fmt.Errorf("parse c2patool output: %w", err)
	}
	m, ok := store.Manifests[store.ActiveManifest]
	if !ok {
		return nil
	}

	set.Add(evidence.KindManifestPresent, "true", c.Name())

	if gen := nameOf(m.ClaimGeneratorInfo); gen != "" {
		set.Add(evidence.KindClaimGenerator, gen, c.Name())
	}
	if m.SignatureInfo.Issuer != "" {
		set.Add(evidence.KindIssuer, m.SignatureInfo.Issuer, c.Name())
	}

	for _, a := range m.Assertions {
		if !strings.Contains(a.Label, "c2pa.actions") {
			continue
		}
		for _, act := range a.Data.Actions {
			if agent := agentName(act.SoftwareAgent); agent != "" {
				set.Add(evidence.KindClaimGenerator, agent, c.Name())
			}
			if act.DigitalSourceType != "" {
				set.Add(evidence.KindDigitalSourceType, lastPathSegment(act.DigitalSourceType), c.Name())
			}
		}
	}
	return nil
}

// nameOf extracts the generator name from the claim_generator_info
// list, whose entries are either bare strings or objects with a name.
func nameOf(infos []json.RawMessage) string {
	if len(infos) == 0 {
		return ""
	}
	return agentName(infos[0])
}

func agentName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// lastPathSegment reduces a vocabulary URL to its trailing token, e.g.
// ".../digitalsourcetype/trainedAlgorithmicMedia" to
// "trainedAlgorithmicMedia".
func lastPathSegment(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}
