package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/woozymasta/skyglow/internal/landmask"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Input  string `short:"i" long:"in" description:"Input GeoJSON or TopoJSON land file. Reads from stdin if empty"`
	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Split  bool   `short:"s" long:"split" description:"Write one feature per polygon instead of a single MultiPolygon"`
	Indent bool   `long:"indent" description:"Indent the output"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Read Input
	var inputData []byte
	var err error

	if opts.Input != "" {
		inputData, err = os.ReadFile(opts.Input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
			os.Exit(1)
		}
	} else {
		inputData, err = io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
			os.Exit(1)
		}
	}

	mask, err := landmask.Parse(inputData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding land geometry: %v\n", err)
		os.Exit(1)
	}

	fc := mask.FeatureCollection(opts.Split)

	// marshal
	var outputData []byte
	if opts.Indent {
		outputData, err = json.MarshalIndent(fc, "", "  ")
	} else {
		outputData, err = fc.MarshalJSON()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d land polygons to %s\n", mask.Len(), opts.Output)
	} else {
		fmt.Println(string(outputData))
	}
}
