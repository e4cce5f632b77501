package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/hrtimer"
	"github.com/tetratelabs/hrtimer/internal/version"
)

func main() {
	doMain(os.Stdout, os.Stderr, os.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(stdOut, stdErr io.Writer, exit func(code int)) {
	flag.CommandLine.SetOutput(stdErr)

	var help bool
	flag.BoolVar(&help, "h", false, "print usage")

	flag.Parse()

	if help || flag.NArg() == 0 {
		printUsage(stdErr)
		exit(0)
	}

	subCmd := flag.Arg(0)
	switch subCmd {
	case "info":
		exit(doInfo(flag.Args()[1:], stdOut, stdErr))
	case "measure":
		exit(doMeasure(flag.Args()[1:], stdOut, stdErr))
	case "system":
		fmt.Fprintln(stdOut, hrtimer.System())
		exit(0)
	case "version":
		fmt.Fprintln(stdOut, version.GetHrtimerVersion())
		exit(0)
	default:
		fmt.Fprintln(stdErr, "invalid command")
		printUsage(stdErr)
		exit(1)
	}
}

// clockFlags are the flags shared by subcommands that initialize a clock.
type clockFlags struct {
	source     string
	resolution time.Duration
	window     time.Duration
	verbose    bool
}

func (f *clockFlags) register(flags *flag.FlagSet) {
	flags.StringVar(&f.source, "source", hrtimer.SourceNative.String(),
		"counter to read: native, tsc, portable or coarse")
	flags.DurationVar(&f.resolution, "resolution", time.Microsecond,
		"resolution of the coarse counter, which must evenly divide 1s")
	flags.DurationVar(&f.window, "window", 10*time.Millisecond,
		"length of each tsc calibration round")
	flags.BoolVar(&f.verbose, "v", false, "log calibration details")
}

// initialize sets up the process-wide clock. Callers must defer
// hrtimer.Shutdown when this returns true.
func (f *clockFlags) initialize(stdErr io.Writer) bool {
	logger := logrus.New()
	logger.SetOutput(stdErr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if f.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	source, err := hrtimer.ParseSource(f.source)
	if err != nil {
		logger.WithError(err).Error("invalid -source")
		return false
	}

	config := hrtimer.NewClockConfig().
		WithSource(source).
		WithCoarseResolution(f.resolution).
		WithCalibrationWindow(f.window).
		WithLogger(logger)
	if err = hrtimer.InitializeWithConfig(config); err != nil {
		logger.WithError(err).Error("clock unavailable")
		return false
	}
	return true
}

func doInfo(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("info", flag.ContinueOnError)
	flags.SetOutput(stdErr)
	flags.Usage = func() { printInfoUsage(stdErr, flags) }

	var cf clockFlags
	cf.register(flags)

	if err := flags.Parse(args); err != nil {
		return exitCodeForParseError(err)
	}

	if !cf.initialize(stdErr) {
		return 1
	}
	defer hrtimer.Shutdown()

	cal := hrtimer.Calibration()
	fmt.Fprintf(stdOut, "source:     %s\n", cal.Source)
	fmt.Fprintf(stdOut, "mode:       %s\n", cal.Mode)
	fmt.Fprintf(stdOut, "frequency:  %d\n", cal.Frequency)
	if cal.Resolution > 0 {
		fmt.Fprintf(stdOut, "resolution: %s\n", cal.Resolution)
	} else {
		fmt.Fprintln(stdOut, "resolution: unknown")
	}
	return 0
}

func doMeasure(args []string, stdOut, stdErr io.Writer) int {
	flags := flag.NewFlagSet("measure", flag.ContinueOnError)
	flags.SetOutput(stdErr)
	flags.Usage = func() { printMeasureUsage(stdErr, flags) }

	var cf clockFlags
	cf.register(flags)

	var sleep time.Duration
	flags.DurationVar(&sleep, "sleep", 50*time.Millisecond, "how long to sleep per iteration")

	var n int
	flags.IntVar(&n, "n", 1, "count of iterations")

	if err := flags.Parse(args); err != nil {
		return exitCodeForParseError(err)
	}
	if n < 1 || sleep < 0 {
		fmt.Fprintln(stdErr, "-n must be positive and -sleep must not be negative")
		printMeasureUsage(stdErr, flags)
		return 1
	}

	if !cf.initialize(stdErr) {
		return 1
	}
	defer hrtimer.Shutdown()

	for i := 0; i < n; i++ {
		start := hrtimer.Current()
		time.Sleep(sleep)
		dt := hrtimer.ElapsedTicks(start)
		fmt.Fprintf(stdOut, "%d: %d ticks, %.6fs, %.3fms\n",
			i, dt, hrtimer.TicksToSeconds(dt), hrtimer.TicksToMilliseconds(dt))
	}
	return 0
}

// exitCodeForParseError returns zero when -h was requested. The flag set
// already printed usage either way.
func exitCodeForParseError(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 1
}

func printUsage(stdErr io.Writer) {
	fmt.Fprintln(stdErr, "hrtimer CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  hrtimer <command>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Commands:")
	fmt.Fprintln(stdErr, "  info\t\tDisplays the calibration of a counter")
	fmt.Fprintln(stdErr, "  measure\tMeasures sleeps with a counter")
	fmt.Fprintln(stdErr, "  system\tDisplays milliseconds since the UNIX epoch")
	fmt.Fprintln(stdErr, "  version\tDisplays the version of hrtimer CLI")
}

func printInfoUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "hrtimer CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  hrtimer info <options>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}

func printMeasureUsage(stdErr io.Writer, flags *flag.FlagSet) {
	fmt.Fprintln(stdErr, "hrtimer CLI")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Usage:\n  hrtimer measure <options>")
	fmt.Fprintln(stdErr)
	fmt.Fprintln(stdErr, "Options:")
	flags.PrintDefaults()
}
