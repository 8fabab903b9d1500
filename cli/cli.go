package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vchandela/btree/btree"
	"github.com/vchandela/btree/metrics"
)

type Cli struct {
	scanner    *bufio.Scanner
	out        io.Writer
	tree       *btree.Tree[string, string]
	visualizer *btree.Visualizer[string, string]
	registry   *prometheus.Registry
	log        *slog.Logger
}

type Options struct {
	// NoColor disables ANSI colors in SHOW output.
	NoColor bool
	Logger  *slog.Logger
}

func NewCli(s *bufio.Scanner, out io.Writer, t *btree.Tree[string, string], opts Options) *Cli {
	v := &btree.Visualizer[string, string]{
		Tree:    t,
		NoColor: opts.NoColor,
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector("btree", t))

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cli{scanner: s, out: out, tree: t, visualizer: v, registry: reg, log: logger}
}

// Start runs the read-eval-print loop until EXIT or end of input.
func (c *Cli) Start() error {
	c.printHelp()
	c.printPrompt()
	for c.scanner.Scan() {
		if quit := c.processInput(c.scanner.Text()); quit {
			return nil
		}
		c.printPrompt()
	}
	return c.scanner.Err()
}

func (c *Cli) printHelp() {
	fmt.Fprint(c.out, `
B-Tree CLI

Available Commands:
  SET <key> <val> Insert a key-value pair into the B-Tree
  DEL <key>       Remove a key-value pair from the B-Tree
  GET <key>       Retrieve the value for key from the B-Tree
  LIST            Print all key-value pairs in key order
  SHOW            Draw the tree structure
  CHECK           Verify the tree invariants
  CAP <levels>    Maximum number of keys a tree with that many levels can hold
  STATS           Print structural counters
  HELP            Print this message
  EXIT            Terminate this session
`)
}

func (c *Cli) printPrompt() {
	fmt.Fprint(c.out, "> ")
}

func (c *Cli) processInput(line string) bool {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return false
	}
	command := strings.ToLower(fields[0])
	switch command {
	default:
		fmt.Fprintf(c.out, "Unknown command \"%s\"\n", command)
	case "set":
		c.processSetCommand(fields[1:])
	case "del":
		c.processDeleteCommand(fields[1:])
	case "get":
		c.processGetCommand(fields[1:])
	case "list":
		c.processListCommand()
	case "show":
		fmt.Fprintln(c.out, c.visualizer.Visualize())
	case "check":
		c.processCheckCommand()
	case "cap":
		c.processCapCommand(fields[1:])
	case "stats":
		c.processStatsCommand()
	case "help":
		c.printHelp()
	case "exit":
		return true
	}
	return false
}

func (c *Cli) processSetCommand(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "Usage: SET <key> <value>")
		return
	}
	if err := c.tree.Insert(args[0], args[1]); err != nil {
		if errors.Is(err, btree.ErrDuplicateKey) {
			fmt.Fprintln(c.out, "Key already exists.")
			return
		}
		c.log.Warn("insert failed", "key", args[0], "err", err)
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, c.tree)
	fmt.Fprintln(c.out, c.visualizer.Visualize())
}

func (c *Cli) processDeleteCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: DEL <key>")
		return
	}
	res := c.tree.Delete(args[0])

	if !res {
		fmt.Fprintln(c.out, "Key not found.")
		return
	}
	fmt.Fprintln(c.out, c.tree)
	fmt.Fprintln(c.out, c.visualizer.Visualize())
}

func (c *Cli) processGetCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: GET <key>")
		return
	}
	val, err := c.tree.Search(args[0])

	if err != nil {
		fmt.Fprintln(c.out, "Key not found.")
		return
	}
	fmt.Fprintln(c.out, val)
}

func (c *Cli) processListCommand() {
	c.tree.Ascend(func(kv btree.KeyValue[string, string]) bool {
		fmt.Fprintf(c.out, "%s=%s\n", kv.Key, kv.Value)
		return true
	})
	fmt.Fprintf(c.out, "(%d pairs)\n", c.tree.Len())
}

func (c *Cli) processCheckCommand() {
	if err := c.tree.Check(); err != nil {
		c.log.Warn("invariant check failed", "err", err)
		fmt.Fprintf(c.out, "FAIL: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "OK")
}

func (c *Cli) processCapCommand(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "Usage: CAP <levels>")
		return
	}
	levels, err := strconv.Atoi(args[0])
	if err != nil || levels < 0 {
		fmt.Fprintln(c.out, "Usage: CAP <levels>")
		return
	}
	fmt.Fprintln(c.out, c.tree.GetMaxCapacity(levels))
}

func (c *Cli) processStatsCommand() {
	mfs, err := c.registry.Gather()
	if err != nil {
		c.log.Warn("gathering stats failed", "err", err)
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}
	var lines []string
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(c.out, l)
	}
}
