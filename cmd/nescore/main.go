// Package main implements the nescore command line front end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"nescore/internal/app"
	"nescore/internal/debug"
	"nescore/internal/graphics"
	"nescore/internal/monitor"
	"nescore/internal/terminal"
	"nescore/internal/version"
)

type options struct {
	rom        string
	config     string
	strict     bool
	frames     int
	trace      string
	start      string
	breaks     string
	headless   bool
	terminal   bool
	monitor    bool
	dumpCHR    string
	dumpFrames string
	testROM    bool
	logLevel   string
	palette    int
	help       bool
	version    bool
}

// exitStatus is returned by run when the process should exit with a
// specific status, such as a failing test ROM's result code
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

var (
	passed = color.New(color.FgGreen, color.Bold).SprintFunc()
	failed = color.New(color.FgRed, color.Bold).SprintFunc()
)

func main() {
	var opts options
	flag.StringVar(&opts.rom, "rom", "", "Path to an iNES ROM file")
	flag.StringVar(&opts.config, "config", "", "Path to configuration file")
	flag.BoolVar(&opts.strict, "strict", false, "Reject bad signatures and unsupported mappers")
	flag.IntVar(&opts.frames, "frames", 0, "Number of frames to run (0 = configured maximum)")
	flag.StringVar(&opts.trace, "trace", "", "Write an instruction trace to FILE, or - for stdout")
	flag.StringVar(&opts.start, "start", "", "Start execution at this hex address instead of the reset vector")
	flag.StringVar(&opts.breaks, "break", "", "Comma separated hex breakpoint addresses")
	flag.BoolVar(&opts.headless, "headless", false, "Run without a display")
	flag.BoolVar(&opts.terminal, "terminal", false, "Show the video memory view in the terminal")
	flag.BoolVar(&opts.monitor, "monitor", false, "Start the interactive debugger")
	flag.StringVar(&opts.dumpCHR, "dump-chr", "", "Write the pattern tables to a PNG file and exit")
	flag.StringVar(&opts.dumpFrames, "dump-frames", "", "Comma separated frame numbers to save as PNG in headless mode")
	flag.BoolVar(&opts.testROM, "test-rom", false, "Run a test ROM that reports through $6000 and exit with its result")
	flag.StringVar(&opts.logLevel, "log-level", "", "DEBUG, INFO, WARN, ERROR or OFF")
	flag.IntVar(&opts.palette, "palette", -1, "Palette used by the pattern table view (0-7)")
	flag.BoolVar(&opts.help, "help", false, "Show help message")
	flag.BoolVar(&opts.version, "version", false, "Show version information")
	flag.Parse()

	if opts.help {
		printUsage()
		return
	}
	if opts.version {
		version.PrintBuildInfo()
		return
	}

	err := run(opts)
	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(int(status))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failed("error:"), err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.rom == "" {
		if flag.NArg() == 0 {
			printUsage()
			return errors.New("no ROM given")
		}
		opts.rom = flag.Arg(0)
	}

	config, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.NewApplication(config)
	defer func() {
		if err := application.Cleanup(); err != nil {
			debug.Errorf("MAIN", "cleanup: %v", err)
		}
	}()

	if err := application.LoadROM(opts.rom); err != nil {
		return err
	}
	if err := setupTrace(application, opts.trace); err != nil {
		return err
	}

	switch {
	case opts.dumpCHR != "":
		return dumpCHR(ctx, application, opts)
	case opts.testROM:
		return runTestROM(ctx, application)
	case opts.monitor:
		return runMonitor(application)
	}

	switch graphics.BackendType(config.Video.Backend) {
	case graphics.BackendHeadless:
		return runHeadless(ctx, application, opts)
	case graphics.BackendTerminal:
		return runTerminal(ctx, application)
	default:
		return runWindow(ctx, application)
	}
}

// loadConfig reads the configuration file and applies the flag overrides
func loadConfig(opts options) (*app.Config, error) {
	config := app.NewConfig()
	path := opts.config
	if path == "" {
		path = app.GetDefaultConfigPath()
	}
	if err := config.LoadFromFile(path); err != nil {
		return nil, err
	}

	if opts.strict {
		config.Emulation.StrictLoading = true
	}
	if opts.frames > 0 {
		config.Emulation.MaxFrames = opts.frames
	}
	if opts.start != "" {
		config.Emulation.StartPC = opts.start
	}
	if opts.breaks != "" {
		config.Debug.Breakpoints = append(config.Debug.Breakpoints, strings.Split(opts.breaks, ",")...)
	}
	if opts.logLevel != "" {
		config.Debug.LogLevel = opts.logLevel
	}
	if opts.palette >= 0 {
		config.Video.Palette = opts.palette
	}
	switch {
	case opts.headless:
		config.Video.Backend = string(graphics.BackendHeadless)
	case opts.terminal:
		config.Video.Backend = string(graphics.BackendTerminal)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setupTrace(application *app.Application, target string) error {
	switch target {
	case "":
		return nil
	case "-":
		return application.SetTraceOutput(os.Stdout)
	}
	if dir := filepath.Dir(target); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	// The trace dumper closes the file on cleanup
	return application.SetTraceOutput(file)
}

// redirectLog moves diagnostics into a file while a full screen front end
// owns the terminal
func redirectLog(application *app.Application) func() {
	dir := application.GetConfig().Paths.Traces
	if err := os.MkdirAll(dir, 0755); err != nil {
		return func() {}
	}
	file, err := os.Create(filepath.Join(dir, "nescore.log"))
	if err != nil {
		return func() {}
	}
	debug.SetOutput(file)
	return func() {
		debug.SetOutput(os.Stderr)
		file.Close()
	}
}

func dumpCHR(ctx context.Context, application *app.Application, opts options) error {
	// CHR RAM games fill the pattern tables while running
	if opts.frames > 0 {
		if err := application.Run(ctx, opts.frames); err != nil && !errors.Is(err, app.ErrBreakpoint) {
			return err
		}
	}
	config := application.GetConfig()
	if err := graphics.DumpCHR(opts.dumpCHR, application.GetBus(), config.Video.Palette, config.Window.Scale); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", opts.dumpCHR)
	return nil
}

func runTestROM(ctx context.Context, application *app.Application) error {
	result, err := application.RunTestROM(ctx)
	if err != nil {
		return err
	}
	name := filepath.Base(application.GetROMPath())
	if result.Message != "" {
		fmt.Println(strings.TrimRight(result.Message, "\n"))
	}
	if !result.Passed() {
		fmt.Printf("%s %s %s\n", failed("FAIL"), name, result)
		return exitStatus(result.Status)
	}
	fmt.Printf("%s %s %s\n", passed("PASS"), name, result)
	return nil
}

func runMonitor(application *app.Application) error {
	m, err := monitor.New(application)
	if err != nil {
		return err
	}
	restore := redirectLog(application)
	defer restore()
	return monitor.NewUI(m).Run()
}

func runHeadless(ctx context.Context, application *app.Application, opts options) error {
	frames, err := parseFrames(opts.dumpFrames)
	if err != nil {
		return err
	}

	if len(frames) == 0 {
		err = application.Run(ctx, 0)
	} else {
		err = runHeadlessViewer(ctx, application, frames)
	}

	b := application.GetBus()
	fmt.Printf("%d frames, %s\n", b.FrameCount(), b.CPU.Registers())
	if errors.Is(err, app.ErrBreakpoint) {
		fmt.Printf("stopped at breakpoint $%04X\n", b.CPU.PC)
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runHeadlessViewer renders the view every frame and saves the listed frames
func runHeadlessViewer(ctx context.Context, application *app.Application, frames []uint64) error {
	config := application.GetConfig()
	limit := frames[len(frames)-1]
	if config.Emulation.MaxFrames > 0 && uint64(config.Emulation.MaxFrames) < limit {
		limit = uint64(config.Emulation.MaxFrames)
	}

	backend := graphics.NewHeadlessBackend()
	if err := backend.Initialize(graphics.Config{
		Scale:      config.Window.Scale,
		OutputDir:  config.Paths.Dumps,
		DumpFrames: frames,
		MaxFrames:  limit,
		Headless:   true,
	}); err != nil {
		return err
	}
	defer backend.Cleanup()

	window, err := backend.CreateWindow(config.Window.Title, graphics.ViewWidth, graphics.ViewHeight)
	if err != nil {
		return err
	}
	viewer := graphics.NewViewer(application, window, nil, config.Video.Palette)
	stopOnDone(ctx, nil, viewer)
	err = viewer.Run()
	if headless, ok := window.(*graphics.HeadlessWindow); ok {
		fmt.Printf("saved %d of %d frames to %s\n", len(headless.SavedFrames()), len(frames), config.Paths.Dumps)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func parseFrames(list string) ([]uint64, error) {
	if list == "" {
		return nil, nil
	}
	var frames []uint64
	for _, field := range strings.Split(list, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(field), 10, 64)
		if err != nil || n == 0 {
			return nil, fmt.Errorf("invalid frame number %q", field)
		}
		frames = append(frames, n)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	return frames, nil
}

func runTerminal(ctx context.Context, application *app.Application) error {
	config := application.GetConfig()
	source, err := terminal.NewSource(config.Input.TerminalKeys.Buttons(), terminal.DefaultHoldFrames)
	if err != nil {
		return err
	}

	backend := graphics.NewTerminalBackend()
	if err := backend.Initialize(graphics.Config{WindowTitle: config.Window.Title}); err != nil {
		return err
	}
	defer backend.Cleanup()
	window, err := backend.CreateWindow(config.Window.Title, graphics.ViewWidth, graphics.ViewHeight)
	if err != nil {
		return err
	}

	viewer := graphics.NewViewer(application, window, nil, config.Video.Palette)
	application.GetBus().SetInputSource(source)

	if terminal.IsTerminal() {
		host := terminal.NewHost(source)
		if err := host.Start(); err != nil {
			return err
		}
		defer host.Stop()
	}
	restore := redirectLog(application)
	defer restore()

	stopOnDone(ctx, source.Done(), viewer)
	return viewer.Run()
}

func runWindow(ctx context.Context, application *app.Application) error {
	config := application.GetConfig()
	keys, err := graphics.ParseKeyMapping(config.Input.Player1Keys.Buttons())
	if err != nil {
		return err
	}

	backend, err := graphics.CreateBackend(graphics.BackendEbitengine)
	if err != nil {
		return err
	}
	if err := backend.Initialize(graphics.Config{
		WindowTitle: config.Window.Title,
		Scale:       config.Window.Scale,
	}); err != nil {
		return err
	}
	defer backend.Cleanup()

	title := fmt.Sprintf("%s - %s", config.Window.Title, filepath.Base(application.GetROMPath()))
	window, err := backend.CreateWindow(title, graphics.ViewWidth, graphics.ViewHeight)
	if err != nil {
		return err
	}
	viewer := graphics.NewViewer(application, window, keys, config.Video.Palette)
	stopOnDone(ctx, nil, viewer)
	return viewer.Run()
}

// stopOnDone quits the viewer when ctx is cancelled or done is closed
func stopOnDone(ctx context.Context, done <-chan struct{}, viewer *graphics.Viewer) {
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		viewer.Quit()
	}()
}

func printUsage() {
	fmt.Println("nescore - NES CPU, PPU register and cartridge core")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nescore [options] -rom <file>")
	fmt.Println("  nescore [options] <file>")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  nescore game.nes                               # pattern table viewer window")
	fmt.Println("  nescore -terminal game.nes                     # viewer in the terminal")
	fmt.Println("  nescore -headless -start C000 -frames 60 \\")
	fmt.Println("          -trace nestest.log nestest.nes         # nestest automation trace")
	fmt.Println("  nescore -test-rom 01-basics.nes                # run a test ROM")
	fmt.Println("  nescore -monitor game.nes                      # interactive debugger")
	fmt.Println("  nescore -dump-chr chr.png game.nes             # save the pattern tables")
	fmt.Println()
	fmt.Println("VIEWER KEYS:")
	fmt.Println("  W/A/S/D  D-Pad      J  A       K      B")
	fmt.Println("  Enter    Start      Space      Select")
	fmt.Println("  P        pause      R  reset   Tab    next palette")
	fmt.Println("  Escape   quit (Ctrl-C in the terminal)")
	fmt.Println()
	fmt.Printf("CONFIGURATION:\n  Config file: %s\n", app.GetDefaultConfigPath())
}
