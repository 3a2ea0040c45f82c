// Command depthrun executes an exported .ptl artifact on an image and
// writes the predicted depth map as a grayscale PNG.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/5usu/depthgo/internal/backend/cpu"
	"github.com/5usu/depthgo/internal/imgio"
	"github.com/5usu/depthgo/internal/runtime"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("depthrun", flag.ExitOnError)
	modelPath := fs.String("model", "depth_kornia.torchscript.ptl", "exported artifact path")
	imagePath := fs.String("image", "", "input image (PNG or JPEG)")
	out := fs.String("out", "depth.png", "output depth map path")
	maxEdge := fs.Int("max-edge", imgio.DefaultMaxEdge, "cap on the decoded image's long edge, 0 to disable")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "depthrun: -image is required")
		fs.Usage()
		return 1
	}

	backend := cpu.New()
	program, err := runtime.Load(*modelPath, backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depthrun: %v\n", err)
		return 1
	}

	input, err := imgio.Load(*imagePath, *maxEdge)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depthrun: %v\n", err)
		return 1
	}

	depth, err := program.Run(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "depthrun: %v\n", err)
		return 1
	}

	if err := imgio.SaveDepthPNG(*out, depth); err != nil {
		fmt.Fprintf(os.Stderr, "depthrun: %v\n", err)
		return 1
	}

	shape := depth.Shape()
	fmt.Printf("Wrote %s (%dx%d)\n", *out, shape[3], shape[2])
	return 0
}
