// Package main is the detect command: one batched SSD detection pass over a set
// of images.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	flagConfig    = "config"
	flagImage     = "image"
	flagModel     = "model"
	flagWeights   = "weights"
	flagBackend   = "backend"
	flagDevice    = "device"
	flagOutputDir = "output-dir"
	flagFormat    = "format"
	flagThreshold = "threshold"
	flagLabels    = "labels"
	flagDumpInput = "dump-input"
	flagDebug     = "debug"
)

func main() {
	app := &cli.App{
		Name:      "detect",
		Usage:     "run SSD object detection on a batch of images",
		UsageText: "detect -m model.onnx -i image.jpg [-i dir] [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringSliceFlag{
				Name:     flagImage,
				Aliases:  []string{"i"},
				Usage:    "image `PATH` or directory (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    flagModel,
				Aliases: []string{"m"},
				Usage:   "model `FILE`",
			},
			&cli.StringFlag{
				Name:  flagWeights,
				Usage: "weights or graph `FILE` for the dnn backend",
			},
			&cli.StringFlag{
				Name:  flagBackend,
				Usage: "inference backend: onnx or dnn",
			},
			&cli.StringFlag{
				Name:    flagDevice,
				Aliases: []string{"d"},
				Usage:   "execution provider (onnx: cpu, cuda, openvino, coreml) or target (dnn: cpu, opencl, myriad)",
			},
			&cli.StringFlag{
				Name:    flagOutputDir,
				Aliases: []string{"o"},
				Usage:   "directory for annotated images",
			},
			&cli.StringFlag{
				Name:  flagFormat,
				Usage: "annotated image format: bmp, png, jpeg or webp",
			},
			&cli.Float64Flag{
				Name:  flagThreshold,
				Usage: "minimum confidence (exclusive) of a kept detection",
			},
			&cli.StringFlag{
				Name:  flagLabels,
				Usage: "class names `FILE`, one per line",
			},
			&cli.StringFlag{
				Name:  flagDumpInput,
				Usage: "write the packed input images to `DIR`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "detect: %v\n", err)
		os.Exit(1)
	}
}
