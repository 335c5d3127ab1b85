// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// blockwipe securely erases block devices.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"

	"github.com/blockwipe/blockwipe/block"
	"github.com/blockwipe/blockwipe/internal/conf"
	"github.com/blockwipe/blockwipe/wipe"
)

var version = "devel"

const settingsPath = "/etc/blockwipe/settings.yaml"

var opts struct {
	version bool
	verbose bool

	autonuke     bool
	autoPowerOff bool

	syncRate      int
	verify        string
	method        string
	logfile       string
	pdfReportPath string
	prng          string
	rounds        int

	quiet     bool
	noBlank   bool
	noWait    bool
	noSignals bool
	noGUI     bool
	noUSB     bool

	exclude string
}

var rootCmd = &cobra.Command{
	Use:   "blockwipe [device...]",
	Short: "Securely erase block devices",
	Long: "blockwipe overwrites whole block devices with multi-pass wipe methods\n" +
		"and optionally verifies the written data. With no devices given, all\n" +
		"eligible disks found on the system are wiped.",
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.version {
			fmt.Printf("blockwipe %s\n", version)

			return nil
		}

		if opts.noGUI {
			if !opts.autonuke {
				return fmt.Errorf("%w: --nogui requires --autonuke", wipe.ErrConfigInvalid)
			}

			opts.noWait = true
		}

		logger, flush, err := buildLogger()
		if err != nil {
			return err
		}

		defer flush()

		return run(cmd.Context(), logger, args)
	},
}

func init() {
	// flag parse failures are malformed arguments and must exit EINVAL like
	// every other configuration error
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", wipe.ErrConfigInvalid, err)
	})

	flags := rootCmd.Flags()

	flags.BoolVarP(&opts.version, "version", "V", false, "print version and exit")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")
	flags.BoolVar(&opts.autonuke, "autonuke", false, "skip confirmation and wipe immediately")
	flags.BoolVar(&opts.autoPowerOff, "autopoweroff", false, "power off the host after the run")
	flags.IntVar(&opts.syncRate, "sync", 0, "flush cadence in writes, 0 flushes at pass end only")
	flags.StringVar(&opts.verify, "verify", "last", "verification policy: off|last|all")
	flags.StringVarP(&opts.method, "method", "m", "dodshort", "wipe method")
	flags.StringVarP(&opts.logfile, "logfile", "l", "", "log destination (default stdout, .gz compresses)")
	flags.StringVarP(&opts.pdfReportPath, "PDFreportpath", "P", "", "PDF certificate directory, or noPDF to disable")
	flags.StringVarP(&opts.prng, "prng", "p", "", "PRNG for random passes")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "anonymise serials and machine identifiers in logs")
	flags.IntVarP(&opts.rounds, "rounds", "r", 1, "number of method repetitions")
	flags.BoolVar(&opts.noBlank, "noblank", false, "skip the final blanking pass")
	flags.BoolVar(&opts.noWait, "nowait", false, "do not wait for a key on exit")
	flags.BoolVar(&opts.noSignals, "nosignals", false, "do not install signal handlers")
	flags.BoolVar(&opts.noGUI, "nogui", false, "headless mode (implies --nowait, requires --autonuke)")
	flags.BoolVar(&opts.noUSB, "nousb", false, "exclude USB-attached devices")
	flags.StringVarP(&opts.exclude, "exclude", "e", "", "comma-separated device paths to skip")
}

// buildLogger constructs the log sink: console to stdout by default, JSON to
// a file when --logfile is given. A ".gz" suffix compresses the file on the
// fly.
func buildLogger() (*zap.Logger, func(), error) {
	level := zap.InfoLevel
	if opts.verbose {
		level = zap.DebugLevel
	}

	flush := func() {}

	var core zapcore.Core

	if opts.logfile != "" {
		f, err := os.OpenFile(opts.logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: opening logfile: %v", wipe.ErrConfigInvalid, err)
		}

		var sink io.Writer = f

		if strings.HasSuffix(opts.logfile, ".gz") {
			gz := gzip.NewWriter(f)
			sink = gz

			flush = func() {
				gz.Close() //nolint:errcheck
				f.Close()  //nolint:errcheck
			}
		} else {
			flush = func() {
				f.Close() //nolint:errcheck
			}
		}

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(sink), level)
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()

		core = zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level)
	}

	return zap.New(core), flush, nil
}

// buildPlan translates the flags into a validated run plan.
func buildPlan() (*wipe.Plan, error) {
	method, err := wipe.LookupMethod(opts.method)
	if err != nil {
		return nil, err
	}

	verify, err := wipe.ParseVerifyPolicy(opts.verify)
	if err != nil {
		return nil, err
	}

	plan := wipe.NewPlan()

	plan.Method = method
	plan.PRNG = opts.prng
	plan.Rounds = opts.rounds
	plan.Verify = verify
	plan.SyncRate = opts.syncRate
	plan.Blank = !opts.noBlank
	plan.Quiet = opts.quiet
	plan.NoSignals = opts.noSignals
	plan.PowerOff = opts.autoPowerOff

	if err = plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// applyPDFSettings loads the persistent settings consumed by the external PDF
// certificate subsystem, pushes the -P override into them, and logs the
// effective state.
func applyPDFSettings(logger *zap.Logger) error {
	settings, err := conf.Load(settingsPath)
	if err != nil {
		if opts.pdfReportPath != "" {
			return fmt.Errorf("%w: %v", wipe.ErrConfigInvalid, err)
		}

		logger.Warn("failed to load settings, PDF certificate state unknown", zap.Error(err))

		return nil
	}

	if opts.pdfReportPath != "" {
		if strings.EqualFold(opts.pdfReportPath, "noPDF") {
			settings.Set(conf.KeyPDFEnable, conf.Disabled)
		} else {
			settings.Set(conf.KeyPDFEnable, conf.Enabled)
			settings.Set("PDF_Certificate.PDF_Path", opts.pdfReportPath)
		}

		if err = settings.Save(); err != nil {
			logger.Warn("failed to persist PDF settings", zap.Error(err))
		}
	}

	enable, _ := settings.Get(conf.KeyPDFEnable)
	preview, _ := settings.Get(conf.KeyPDFPreview)

	logger.Info("PDF certificate settings",
		zap.String("enable", enable),
		zap.String("preview", preview),
	)

	return nil
}

// selectTargets resolves the devices to wipe: the positional arguments, or
// every eligible disk on the system, filtered through the exclusion list.
func selectTargets(args []string) ([]*wipe.Target, error) {
	exclude, err := wipe.ParseExcludeList(opts.exclude)
	if err != nil {
		return nil, err
	}

	var disks []*block.Disk

	if len(args) > 0 {
		for _, path := range args {
			disk, err := diskForPath(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", wipe.ErrOpenFailed, path, err)
			}

			disks = append(disks, disk)
		}
	} else {
		disks, err = block.List()
		if err != nil {
			return nil, err
		}
	}

	disks = wipe.Select(disks, exclude, opts.noUSB)

	if len(disks) == 0 {
		return nil, fmt.Errorf("%w: no devices selected", wipe.ErrConfigInvalid)
	}

	targets := make([]*wipe.Target, 0, len(disks))

	for _, disk := range disks {
		targets = append(targets, wipe.NewTarget(disk))
	}

	return targets, nil
}

// diskForPath resolves one positional argument: sysfs metadata for block
// devices, a synthetic entry for regular files used as file-backed targets.
func diskForPath(path string) (*block.Disk, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if st.Mode()&os.ModeDevice != 0 {
		return block.Get(path), nil
	}

	return &block.Disk{
		Path:       path,
		Size:       uint64(st.Size()),
		SectorSize: block.DefaultBlockSize,
	}, nil
}

// confirm lists the selected devices and demands an explicit "yes" before
// anything is written.
func confirm(plan *wipe.Plan, targets []*wipe.Target) (bool, error) {
	fmt.Printf("About to wipe %d device(s) with method %q:\n\n", len(targets), plan.Method.Label())

	for _, target := range targets {
		fmt.Printf("  %-16s %12d bytes  %-5s %s\n",
			target.Disk.Path, target.Disk.Size, target.Disk.Type, target.Disk.Model)
	}

	fmt.Print("\nThis operation is irreversible. Type 'yes' to continue: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}

	return strings.TrimSpace(line) == "yes", nil
}

func run(ctx context.Context, logger *zap.Logger, args []string) error {
	plan, err := buildPlan()
	if err != nil {
		return err
	}

	if err = applyPDFSettings(logger); err != nil {
		return err
	}

	targets, err := selectTargets(args)
	if err != nil {
		return err
	}

	if !opts.autonuke {
		ok, err := confirm(plan, targets)
		if err != nil {
			return err
		}

		if !ok {
			fmt.Println("Aborted.")

			return wipe.ErrCancelled
		}
	}

	results := wipe.NewSupervisor(plan, targets, logger).Run(ctx)

	if !opts.noWait {
		fmt.Print("Press Enter to exit...")
		bufio.NewReader(os.Stdin).ReadString('\n') //nolint:errcheck
	}

	if wipe.ExitCode(results) != 0 {
		return errors.New("one or more devices failed to wipe")
	}

	return nil
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "blockwipe: %v\n", err)

	if errors.Is(err, wipe.ErrConfigInvalid) {
		os.Exit(int(unix.EINVAL))
	}

	os.Exit(1)
}
