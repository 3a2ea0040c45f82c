// Package export drives the end-to-end pipeline: resolve an
// architecture key, build the network, optionally load weights, fuse
// the preprocessing wrapper, trace, optimize, and serialize a mobile
// artifact.
package export

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/5usu/depthgo/internal/backend/cpu"
	"github.com/5usu/depthgo/internal/mobile"
	"github.com/5usu/depthgo/internal/preprocess"
	"github.com/5usu/depthgo/internal/serialization"
	"github.com/5usu/depthgo/internal/tensor"
	"github.com/5usu/depthgo/internal/trace"
	"github.com/5usu/depthgo/internal/weights"
	"github.com/5usu/depthgo/internal/zoo"
)

// Options configures one export run.
type Options struct {
	Model   string // architecture key, matched case-insensitively
	Weights string // optional checkpoint path; empty means random initialization
	Size    int    // square input resolution baked into the artifact
	Out     string // output artifact path
}

// Result reports what an export produced.
type Result struct {
	ArchID       string // canonical architecture identifier
	Path         string // written artifact path
	Optimized    bool   // false when optimization failed and the raw trace was written
	ParamsLoaded int    // parameters copied from the checkpoint, 0 without one
	NodeCount    int    // operation count of the written graph
}

// optimize is a seam for tests that exercise the fallback path;
// mobile.Optimize cannot be made to fail from a well-formed trace.
var optimize = mobile.Optimize

// Run executes the pipeline. Warnings go to stderr.
func Run(opts Options) (*Result, error) {
	return RunTo(os.Stderr, opts)
}

// RunTo is Run with an explicit warning sink.
func RunTo(warn io.Writer, opts Options) (*Result, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("export: invalid input size %d", opts.Size)
	}
	if opts.Out == "" {
		return nil, fmt.Errorf("export: output path is empty")
	}

	archID, err := zoo.Resolve(opts.Model)
	if err != nil {
		return nil, err
	}

	backend := cpu.New()
	net, err := zoo.Acquire(archID, backend)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	result := &Result{ArchID: archID, Path: opts.Out}

	if opts.Weights != "" {
		checkpoint, err := weights.Load(opts.Weights)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		result.ParamsLoaded = weights.ApplyTo(warn, net, checkpoint)
	}

	wrapper := preprocess.NewWrapper(net, opts.Size, opts.Size)

	// A synthetic example drives the trace. Its values matter: normal
	// draws exceed 1 in practice, so the 0-255 rescale branch is the
	// one baked into the artifact, matching camera input.
	example := tensor.Randn[float32](tensor.Shape{1, 3, opts.Size, opts.Size}, backend)

	// The wrapper branches on input range, so a strict re-trace would
	// be meaningless, and the example is synthetic, so numerical
	// replay checking is skipped too.
	traced, err := trace.Trace(wrapper, example, backend, trace.Options{Strict: false, CheckTrace: false})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	g, constants := traced.Graph, traced.Constants
	if og, oc, err := optimize(g, constants); err != nil {
		fmt.Fprintf(warn, "warning: mobile optimization failed (%v), writing unoptimized artifact\n", err)
	} else {
		g, constants = og, oc
		result.Optimized = true
	}
	result.NodeCount = len(g.Nodes)

	w, err := serialization.NewWriter(opts.Out)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	defer w.Close()

	metadata := map[string]string{
		"input_height": strconv.Itoa(opts.Size),
		"input_width":  strconv.Itoa(opts.Size),
	}
	if err := w.WriteArtifact(g, constants, archID, metadata); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return result, nil
}
