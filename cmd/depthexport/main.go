// Command depthexport builds a monocular depth network, fuses camera
// preprocessing into it, and writes a mobile-ready .ptl artifact.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/5usu/depthgo/internal/export"
	"github.com/5usu/depthgo/internal/preprocess"
	"github.com/5usu/depthgo/internal/runtime"
	"github.com/5usu/depthgo/internal/serialization"
	"github.com/5usu/depthgo/internal/zoo"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("depthexport", flag.ExitOnError)
	model := fs.String("model", "midas_small", "architecture key (case-insensitive)")
	weightsPath := fs.String("weights", "", "optional weight checkpoint (.ptl state dict)")
	size := fs.Int("size", 256, "square input resolution baked into the artifact")
	out := fs.String("out", "depth_kornia.torchscript.ptl", "output artifact path")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	// Environment sanity before any real work: the preprocessing ops
	// must produce known-good numbers, and the artifacts this tool
	// writes must be loadable by the runtime it ships with.
	if err := preprocess.Verify(); err != nil {
		fmt.Fprintf(os.Stderr, "depthexport: preprocessing self-check failed: %v\n", err)
		return 1
	}
	if serialization.FormatVersion > runtime.SupportedFormatVersion {
		fmt.Fprintf(os.Stderr, "depthexport: containers are written as format %d but the bundled runtime supports only up to %d\n",
			serialization.FormatVersion, runtime.SupportedFormatVersion)
		return 1
	}

	result, err := export.Run(export.Options{
		Model:   *model,
		Weights: *weightsPath,
		Size:    *size,
		Out:     *out,
	})
	if err != nil {
		if errors.Is(err, zoo.ErrUnknownModel) {
			fmt.Fprintf(os.Stderr, "depthexport: %v\n", err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "depthexport: %v\n", err)
		return 1
	}

	if result.Optimized {
		fmt.Printf("Wrote %s (%s, %d ops, optimized)\n", result.Path, result.ArchID, result.NodeCount)
	} else {
		fmt.Printf("Wrote %s (%s, %d ops)\n", result.Path, result.ArchID, result.NodeCount)
	}
	return 0
}
