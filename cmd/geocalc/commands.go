package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/geocalc/internal/config"
	"github.com/JonMunkholm/geocalc/internal/core"
	"github.com/JonMunkholm/geocalc/internal/logging"
	"github.com/JonMunkholm/geocalc/internal/pointcsv"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds state shared by the subcommands once the root has run.
type app struct {
	mode     string
	logLevel string
	service  *core.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "geocalc",
		Short:         "Compute areas and volumes from surveyed point files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.mode, "mode", "", "CSV layout: named or positional (default from CSV_MODE)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level written to stderr (default from LOG_LEVEL)")

	root.AddCommand(
		a.areaCmd(),
		a.volumeCmd(),
		a.weightCmd(),
		a.gridCmd(),
	)
	return root
}

// setup loads configuration and builds the service. Logs go to stderr so
// stdout carries only results.
func (a *app) setup(logOut io.Writer) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logging.SetupWriter(logOut, level, cfg.Logging.Format)

	if a.mode != "" {
		if _, err := pointcsv.ParseMode(a.mode); err != nil {
			return &userError{cause: core.NewModeError(a.mode)}
		}
		cfg.Compute.CSVMode = a.mode
	}

	a.service, err = core.NewService(cfg, nil)
	return err
}

func (a *app) areaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "area FILE",
		Short: "Polygon area of one point file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.ComputeArea(cmd.Context(), core.FileSource(args[0]), "")
			if err != nil {
				return &userError{cause: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func (a *app) volumeCmd() *cobra.Command {
	var height string

	cmd := &cobra.Command{
		Use:   "volume BOTTOM TOP",
		Short: "Frustum volume between two cross-sections",
		Long: `Computes the volume between a bottom and a top cross-section.

Without --height both files need a z column; the height is then the
difference of their mean elevations.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.service.ComputeVolume(cmd.Context(), core.VolumeRequest{
				Bottom: core.FileSource(args[0]),
				Top:    core.FileSource(args[1]),
				Height: height,
			})
			if err != nil {
				return &userError{cause: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), res)
			fmt.Fprintln(cmd.OutOrStdout(), res.GridString())
			return nil
		},
	}
	cmd.Flags().StringVar(&height, "height", "", "Height in meters (derived from z columns when omitted)")
	return cmd
}

func (a *app) weightCmd() *cobra.Command {
	return a.numericCmd(&cobra.Command{
		Use:   "weight VOLUME DENSITY",
		Short: "Weight in tons of a volume at a density in t/m³",
	}, 2, func(cmd *cobra.Command, ops []string) (fmt.Stringer, error) {
		return a.service.ComputeWeight(cmd.Context(), ops[0], ops[1])
	})
}

func (a *app) gridCmd() *cobra.Command {
	return a.numericCmd(&cobra.Command{
		Use:   "grid VOLUME",
		Short: "Suggested grid spacing for a volume",
	}, 1, func(cmd *cobra.Command, ops []string) (fmt.Stringer, error) {
		return a.service.ComputeGrid(cmd.Context(), ops[0])
	})
}

// numericCmd completes a command whose operands are numbers. Flag parsing
// is off so "-5" reaches validation as a value; the persistent flags are
// picked out of the raw arguments by splitOperands instead.
func (a *app) numericCmd(cmd *cobra.Command, n int, compute func(*cobra.Command, []string) (fmt.Stringer, error)) *cobra.Command {
	cmd.DisableFlagParsing = true
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		ops, flags, err := splitOperands(args)
		if err != nil || flags.help {
			return err
		}
		if len(ops) != n {
			return fmt.Errorf("accepts %d arg(s), received %d", n, len(ops))
		}
		return nil
	}
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		_, flags, err := splitOperands(args)
		if err != nil || flags.help {
			return err
		}
		if flags.mode != "" {
			a.mode = flags.mode
		}
		if flags.logLevel != "" {
			a.logLevel = flags.logLevel
		}
		return a.setup(cmd.ErrOrStderr())
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ops, flags, err := splitOperands(args)
		if err != nil {
			return err
		}
		if flags.help {
			return cmd.Help()
		}

		res, err := compute(cmd, ops)
		if err != nil {
			return &userError{cause: err}
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	}
	return cmd
}

// rawFlags are the root flags recognised among raw arguments.
type rawFlags struct {
	mode     string
	logLevel string
	help     bool
}

// splitOperands separates --mode, --log-level and --help from operands.
// Everything else, including negative numbers, is an operand; after "--"
// nothing is treated as a flag.
func splitOperands(args []string) ([]string, rawFlags, error) {
	var (
		ops   []string
		flags rawFlags
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			ops = append(ops, args[i+1:]...)
			break
		}
		if arg == "-h" || arg == "--help" {
			flags.help = true
			continue
		}

		name, value, inline := strings.Cut(arg, "=")
		var target *string
		switch name {
		case "--mode":
			target = &flags.mode
		case "--log-level":
			target = &flags.logLevel
		default:
			ops = append(ops, arg)
			continue
		}

		if !inline {
			if i+1 >= len(args) {
				return nil, rawFlags{}, fmt.Errorf("flag needs an argument: %s", name)
			}
			i++
			value = args[i]
		}
		*target = value
	}

	return ops, flags, nil
}

// userError is a failed computation. Its message is the status line a user
// would see; report adds the support code and suggested action.
type userError struct {
	cause error
}

func (e *userError) Error() string {
	return core.UserText(e.cause)
}

func (e *userError) Unwrap() error {
	return e.cause
}

// report writes err to w: the status line, then the support line for
// computation failures.
func report(w io.Writer, err error) {
	fmt.Fprintln(w, err)

	var ue *userError
	if errors.As(err, &ue) {
		fmt.Fprintln(w, core.FormatUserError(ue.cause))
	}
}
