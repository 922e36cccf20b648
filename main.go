package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cwsl/ubersstv/audio_extensions/sstv"
)

const defaultConfigFile = "config.yaml"

// cliOptions holds the parsed command line. Only flags that were given
// override the configuration file.
type cliOptions struct {
	input       string
	output      string
	mode        string
	format      string
	sampleRate  int
	aspect      string
	callsign    string
	wpm         int
	toneHz      float64
	verbose     bool
	timestamps  bool
	keep        bool
	configFile  string
	listModes   bool
	check       bool
	metricsFile string
	version     bool

	set map[string]bool
}

var errUsage = errors.New("usage")

func parseFlags(args []string, output io.Writer) (*cliOptions, error) {
	opts := &cliOptions{set: make(map[string]bool)}
	fs := flag.NewFlagSet("ubersstv", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.input, "i", "", "Input image (jpeg, png, gif, bmp, tiff, webp)")
	fs.StringVar(&opts.output, "o", "", "Output audio file (default: input name with the format's extension)")
	fs.StringVar(&opts.mode, "p", "", "SSTV mode: m1, m2, s1, s2, sdx, r36, r72")
	fs.StringVar(&opts.format, "f", "", "Output format: "+strings.Join(ListAudioEncoders(), ", "))
	fs.IntVar(&opts.sampleRate, "r", 0, "Sample rate in Hz (8000-48000)")
	fs.StringVar(&opts.aspect, "a", "", "Aspect mode: center, pad, stretch")
	fs.StringVar(&opts.callsign, "C", "", "Callsign; enables the CW signature")
	fs.IntVar(&opts.wpm, "W", 0, "CW speed in WPM (1-50, requires -C)")
	fs.Float64Var(&opts.toneHz, "T", 0, "CW tone in Hz (400-2000, requires -C)")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose progress logging")
	fs.BoolVar(&opts.timestamps, "Z", false, "Microsecond timestamps in logs (implies -v)")
	fs.BoolVar(&opts.keep, "K", false, "Keep the resized intermediate image")
	fs.StringVar(&opts.configFile, "config", defaultConfigFile, "Path to configuration file")
	fs.BoolVar(&opts.listModes, "list-modes", false, "List the supported modes and exit")
	fs.BoolVar(&opts.check, "check", false, "Analyse the produced audio and verify the written file")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	fs.BoolVar(&opts.version, "version", false, "Print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if (opts.set["W"] || opts.set["T"]) && !opts.set["C"] {
		return nil, fmt.Errorf("-W and -T require -C")
	}
	if opts.input == "" && !opts.listModes && !opts.version {
		return nil, fmt.Errorf("an input image is required (-i)")
	}
	return opts, nil
}

// apply overrides config with every flag that was given
func (o *cliOptions) apply(config *Config) {
	if o.set["p"] {
		config.Encoder.Mode = strings.ToLower(strings.TrimSpace(o.mode))
	}
	if o.set["f"] {
		config.Output.Format = strings.ToLower(strings.TrimSpace(o.format))
	}
	if o.set["r"] {
		config.Encoder.SampleRate = o.sampleRate
	}
	if o.set["a"] {
		config.Image.Aspect = strings.ToLower(strings.TrimSpace(o.aspect))
	}
	if o.set["C"] {
		config.CW.Enabled = true
		config.CW.Callsign = strings.TrimSpace(o.callsign)
		config.CW.Message = ""
	}
	if o.set["W"] {
		config.CW.WPM = o.wpm
	}
	if o.set["T"] {
		config.CW.ToneHz = o.toneHz
	}
	if o.verbose {
		config.Logging.Verbose = true
	}
	if o.timestamps {
		config.Logging.Timestamps = true
	}
	if config.Logging.Timestamps {
		config.Logging.Verbose = true
	}
	if o.keep {
		config.Image.KeepIntermediate = true
	}
	if o.set["o"] {
		config.Output.Path = o.output
	}
	if o.metricsFile != "" {
		config.Prometheus.Enabled = true
		config.Prometheus.Textfile = o.metricsFile
	}
}

// printModes writes the mode table
func printModes(w io.Writer) {
	info := sstv.GetInfo()
	fmt.Fprintf(w, "%s: %s\n\n", info["name"], info["description"])
	fmt.Fprintf(w, "%-5s %-4s %-12s %-10s %-10s %s\n", "MODE", "VIS", "NAME", "RESOLUTION", "COLOR", "TX TIME")
	for _, m := range info["supported_modes"].([]map[string]interface{}) {
		fmt.Fprintf(w, "%-5s %-4d %-12s %-10s %-10s %.1f s\n",
			strings.ToLower(m["short"].(string)), m["vis"], m["name"],
			m["resolution"], m["color"], m["frame_s"])
	}
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if err != errUsage {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return ExitConfig
	}

	if opts.version {
		fmt.Fprintf(stdout, "ubersstv %s (engine %s)\n", Version, sstv.Version)
		return 0
	}
	if opts.listModes {
		printModes(stdout)
		return 0
	}

	// A missing file is only acceptable for the default path
	config, err := LoadConfig(opts.configFile, !opts.set["config"])
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return ExitConfig
	}
	if err := CheckMinVersion(config.MinVersion); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return ExitConfig
	}

	opts.apply(config)
	if env := os.Getenv("SSTV_VERBOSE"); env != "" {
		// Environment variable takes precedence
		config.Logging.Verbose = env == "true" || env == "1" || env == "yes"
	}
	if config.Logging.Timestamps {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	if err := config.Validate(); err != nil {
		log.Printf("Invalid configuration: %v", err)
		return ExitConfig
	}

	var metrics *PrometheusMetrics
	if config.Prometheus.Enabled {
		metrics = NewPrometheusMetrics()
	}

	session, err := NewEncodeSession(config, opts.input, config.Output.Path, metrics)
	if err != nil {
		log.Printf("Error: %v", err)
		return ExitCode(err)
	}
	session.Check = opts.check

	_, runErr := session.Run()
	if runErr != nil {
		log.Printf("Error: %v", runErr)
	}

	if config.Prometheus.Enabled {
		if err := metrics.WriteTextfile(config.Prometheus.Textfile); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	return ExitCode(runErr)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
