package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ttlpool/ttlpool/pkg/types"
	"github.com/ttlpool/ttlpool/server/internal/collector"
)

const intro = "ttlpool console\n\nType \"help\" for a list of commands."

// Engine is the part of collector.Collector the shell drives.
type Engine interface {
	Insert(payload []byte, lifetime time.Duration) string
	Delete(id string) bool
	List() []types.EntryView
	StartPeriodic(period time.Duration) error
	StopPeriodic() error
	TriggerReactive() int
	SetReactiveMode(enabled bool)
	Status() types.CollectorStatus
}

// Options configures a Shell. Zero values are usable.
type Options struct {
	// Prompt is printed before every line. Default: "> ".
	Prompt string

	// DefaultLifetime supplies the lifetime for "garbage" without an argument.
	// Default: one minute.
	DefaultLifetime func() time.Duration

	// Stats writes the metrics exposition for "stats". Nil disables the command.
	Stats func(w io.Writer) error
}

// Shell is a line-oriented command interpreter over an Engine.
type Shell struct {
	engine Engine
	out    io.Writer
	opts   Options
	exit   bool
}

// New returns a Shell that writes all output to out.
func New(engine Engine, out io.Writer, opts Options) *Shell {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	if opts.DefaultLifetime == nil {
		opts.DefaultLifetime = func() time.Duration { return time.Minute }
	}
	return &Shell{engine: engine, out: out, opts: opts}
}

// Run prints the intro and executes lines from in until an exit command, end
// of input or ctx is done. It returns the scanner's error, if any.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintf(s.out, "%s\n\n", intro)

	sc := bufio.NewScanner(in)
	for ctx.Err() == nil {
		fmt.Fprint(s.out, s.opts.Prompt)
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		if s.Exec(sc.Text()) {
			return nil
		}
	}
	return nil
}

// Exec runs a single command line and reports whether the shell should exit.
// Blank lines are ignored.
func (s *Shell) Exec(line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}

	root := s.newRoot()
	if cmd, _, err := root.Find(args); err != nil || cmd == root {
		s.printf("Error: %q is not a valid command\n", strings.TrimSpace(line))
		return false
	}

	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		s.printf("Error: %v\n", err)
	}
	return s.exit
}

func (s *Shell) printf(format string, a ...interface{}) {
	fmt.Fprintf(s.out, format, a...)
}

// newRoot builds the command tree for one line.
func (s *Shell) newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "ttlpool",
		Short:         "ttlpool operator console",
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetOut(s.out)
	root.SetErr(s.out)

	root.AddCommand(
		s.collectorCmd(),
		s.poolCmd(),
		s.deleteCmd(),
		s.garbageCmd(),
		s.sweepCmd(),
		s.statsCmd(),
		s.exitCmd(),
	)
	root.InitDefaultHelpCmd()
	return root
}

func (s *Shell) collectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collector start [period]|stop|enable|disable",
		Short: "Start/stop the periodic collector or enable/disable reactive collection",
		Long: "Start/stop the periodic collector or enable/disable reactive collection.\n" +
			"Reactive collection runs one sweep after every insert.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				s.printf("Error: an action is required (one of: start/stop/enable/disable)\n")
				return nil
			}

			switch action := strings.ToLower(args[0]); action {
			case "start":
				var period time.Duration
				if len(args) == 2 {
					d, err := parseDuration(args[1])
					if err != nil || d == 0 {
						s.printf("Error: %q is not a valid period\n", args[1])
						return nil
					}
					period = d
				}
				if err := s.engine.StartPeriodic(period); err != nil {
					if errors.Is(err, collector.ErrAlreadyRunning) {
						s.printf("Collector is already running\n")
						return nil
					}
					return err
				}
				s.printf("Started garbage collector with %s period\n", s.engine.Status().Period)
			case "stop":
				if err := s.engine.StopPeriodic(); err != nil {
					if errors.Is(err, collector.ErrNotRunning) {
						s.printf("Collector is not running\n")
						return nil
					}
					return err
				}
				s.printf("Stopping garbage collector...\n")
			case "enable":
				s.engine.SetReactiveMode(true)
				s.printf("Reactive garbage collection enabled\n")
			case "disable":
				s.engine.SetReactiveMode(false)
				s.printf("Reactive garbage collection disabled\n")
			default:
				s.printf("Error: %q is not a valid collector action (valid actions: start/stop/enable/disable)\n", action)
			}
			return nil
		},
	}
}

func (s *Shell) poolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Print the data pool contents",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			s.printf("Data:\n")
			for _, v := range s.engine.List() {
				s.printf("  %s - lifetime %s, age %.3fs", v.ID, v.Lifetime, v.Age.Seconds())
				if v.Payload != "" {
					s.printf(", payload %q", v.Payload)
				}
				s.printf("\n")
			}
		},
	}
}

func (s *Shell) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete data from the pool",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if len(args) == 0 {
				s.printf("Error: you must specify the id of the data to be deleted\n")
				return
			}
			id := args[0]
			if !s.engine.Delete(id) {
				s.printf("Error: no data with id %q found in the pool\n", id)
				return
			}
			s.printf("Deleted data %q\n", id)
		},
	}
}

func (s *Shell) garbageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "garbage [lifetime]",
		Short: "Add garbage data with an optional lifetime (seconds or duration)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			lifetime := s.opts.DefaultLifetime()
			if len(args) == 1 {
				d, err := parseDuration(args[0])
				if err != nil {
					s.printf("Error: %q is not a valid lifetime\n", args[0])
					return
				}
				lifetime = d
			}
			id := s.engine.Insert(nil, lifetime)
			s.printf("Added garbage data %q with lifetime %s\n", id, lifetime)
		},
	}
}

func (s *Shell) sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one collection pass now",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			s.printf("Removed %d expired entries\n", s.engine.TriggerReactive())
		},
	}
}

func (s *Shell) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print collector status and metrics",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			st := s.engine.Status()
			s.printf("Collector: %s (period %s, reactive %t), %d entries\n",
				st.State, st.Period, st.Reactive, st.Entries)
			if s.opts.Stats == nil {
				return nil
			}
			return s.opts.Stats(s.out)
		},
	}
}

func (s *Shell) exitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "exit",
		Aliases: []string{"quit", "close"},
		Short:   "Exit the console",
		Run: func(*cobra.Command, []string) {
			s.exit = true
			s.printf("\n")
		},
	}
}

// parseDuration accepts whole seconds ("30") or a Go duration ("1m30s").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration %d", n)
		}
		if int64(n) > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("duration %d seconds is too large", n)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", v)
	}
	return d, nil
}
