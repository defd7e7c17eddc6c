// Package analyze orchestrates a full analysis: extractor runs,
// verdict evaluation, caching, and report assembly.
package analyze

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"aivid/internal/bmff"
	"aivid/internal/config"
	"aivid/internal/detect"
	"aivid/internal/evidence"
	"aivid/internal/extract"
	"aivid/internal/logging"
	"aivid/internal/report"
	"aivid/internal/store"
)

// Analyzer runs the extractor pipeline and detection engine over video
// files.
type Analyzer struct {
	cfg      *config.Config
	registry *extract.Registry
	engine   *detect.Engine
	cache    *store.Store
	log      *slog.Logger
}

// New builds an analyzer from configuration: signatures are loaded and
// merged, extractors registered, and the verdict cache opened.
func New(cfg *config.Config, log *slog.Logger) (*Analyzer, error) {
	if log == nil {
		log = logging.Default()
	}

	sig := detect.DefaultSignatures()
	if cfg.Detection.SignaturesPath != "" {
		loaded, err := detect.LoadSignatures(cfg.Detection.SignaturesPath)
		if err != nil {
			return nil, fmt.Errorf("load signatures: %w", err)
		}
		sig = loaded
	}

	engine, err := detect.NewEngine(detect.DefaultRules(sig), sig)
	if err != nil {
		return nil, fmt.Errorf("build detection engine: %w", err)
	}

	a := &Analyzer{
		cfg:      cfg,
		registry: extract.NewRegistry(),
		engine:   engine,
		log:      logging.Component(log, "analyze"),
	}

	timeout := cfg.Tools.Timeout()
	for _, e := range []extract.Extractor{
		extract.NewContainer(sig.Markers()),
		extract.NewFFprobe(cfg.Tools.FFprobe, timeout),
		extract.NewExifTool(cfg.Tools.ExifTool, timeout),
		extract.NewC2PATool(cfg.Tools.C2PATool, timeout),
		extract.NewHeuristic(sig),
	} {
		if cfg.Extractors.IsDisabled(e.Name()) {
			a.log.Debug("extractor disabled by config", "extractor", e.Name())
			continue
		}
		a.registry.Register(e)
	}

	if cfg.Cache.Enabled {
		cache, err := store.Open(cfg.Cache.Path)
		if err != nil {
			// The cache is an optimization; analysis works without it.
			a.log.Warn("verdict cache unavailable", "path", cfg.Cache.Path, "error", err)
		} else {
			a.cache = cache
		}
	}

	return a, nil
}

// Close releases the verdict cache.
func (a *Analyzer) Close() error {
	if a.cache != nil {
		return a.cache.Close()
	}
	return nil
}

// Registry exposes the extractor registry for status listings.
func (a *Analyzer) Registry() *extract.Registry {
	return a.registry
}

// Engine exposes the detection engine for rule listings.
func (a *Analyzer) Engine() *detect.Engine {
	return a.engine
}

// AnalyzeFile analyzes a single video file. The only fatal error is a
// file that cannot be read; extractor problems become diagnostics in
// the report.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*report.Report, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	fp, err := store.Fingerprint(abs)
	if err != nil {
		return nil, fmt.Errorf("fingerprint %s: %w", path, err)
	}

	r := &report.Report{
		Version:    report.Version,
		AnalyzedAt: time.Now().UTC(),
		File: report.FileInfo{
			Path:        abs,
			Name:        filepath.Base(abs),
			Size:        info.Size(),
			Fingerprint: hex.EncodeToString(fp[:]),
		},
	}

	if a.cache != nil {
		if v, at, ok, err := a.cache.Get(abs, fp); err != nil {
			a.log.Warn("cache lookup failed", "file", abs, "error", err)
		} else if ok {
			a.log.Debug("cache hit", "file", abs)
			r.Verdict = v
			r.Evidence = v.Evidence
			r.AnalyzedAt = at
			r.FromCache = true
			r.Container = a.summarizeContainer(abs, info.Size())
			return r, nil
		}
	}

	set := evidence.NewSet()
	a.registry.Run(ctx, abs, set, a.log)

	r.Verdict = a.engine.Evaluate(set)
	r.Evidence = set.All()
	r.Failures = set.Failures()
	r.Container = a.summarizeContainer(abs, info.Size())

	if a.cache != nil {
		if err := a.cache.Put(abs, fp, r.Verdict, r.AnalyzedAt); err != nil {
			a.log.Warn("cache store failed", "file", abs, "error", err)
		}
	}

	return r, nil
}

// summarizeContainer parses the box tree for the report's container
// section. Non-container files and parse problems yield nil.
func (a *Analyzer) summarizeContainer(path string, size int64) *report.ContainerInfo {
	if !bmff.IsContainerFile(path) {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	tree := bmff.Parse(f, size)
	info := &report.ContainerInfo{
		MajorBrand:       tree.MajorBrand(),
		Truncated:        tree.Truncated,
		TruncationReason: string(tree.Reason),
	}
	tree.Walk(func(*bmff.Box) bool {
		info.BoxCount++
		return true
	})
	return info
}
