package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/verichains/calltrace/journal"
	"github.com/verichains/calltrace/render"
	"github.com/verichains/calltrace/trace"
	"gopkg.in/urfave/cli.v1"
)

var (
	decodeCommand = cli.Command{
		Action:    decodeTrace,
		Name:      "decode",
		ArgsUsage: "<trace.json>",
		Flags: []cli.Flag{
			abiFlag,
			labelFlag,
			workersFlag,
			noPrecompilesFlag,
			formatFlag,
			filterFlag,
			gasFlag,
			saveFlag,
			journalDirFlag,
		},
		Usage:       "Decode a recorded call trace",
		Description: `This command decodes a json call trace against the given abis, the stored signatures and labels, then prints it. Use '-' to read the trace from standard input.`,
	}
)

func readArena(filename string) (*trace.CallTraceArena, error) {
	var reader io.Reader = os.Stdin
	if filename != "-" {
		file, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		reader = file
	}
	arena := new(trace.CallTraceArena)
	if err := json.NewDecoder(reader).Decode(arena); err != nil {
		return nil, fmt.Errorf("invalid call trace: %w", err)
	}
	return arena, nil
}

func decodeTrace(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("invalid number of arguments: %v", ctx.Command.ArgsUsage)
	}
	config, err := makeAppConfig(ctx)
	if err != nil {
		return err
	}
	arena, err := readArena(ctx.Args().Get(0))
	if err != nil {
		return err
	}
	db, err := openDatabase(config, true)
	if err != nil {
		Fatalf("Could not open database: %v", err)
	}
	defer db.Close()
	dec, err := makeDecoder(config, db)
	if err != nil {
		return err
	}
	defer dec.Close()
	dec.Decode(arena)

	if ctx.Bool(saveFlag.Name) {
		if err := saveArena(config, arena); err != nil {
			return err
		}
	}
	if ctx.IsSet(filterFlag.Name) {
		filter, err := trace.CompileFilter(ctx.String(filterFlag.Name))
		if err != nil {
			return err
		}
		return printMatches(os.Stdout, arena, filter)
	}
	return printArena(ctx, os.Stdout, arena, ctx.String(formatFlag.Name))
}

func saveArena(config *appConfig, arena *trace.CallTraceArena) error {
	if config.Journal.Dir == "" {
		return fmt.Errorf("no journal directory, use --%s", journalDirFlag.Name)
	}
	j, err := journal.Open(config.Journal.Dir)
	if err != nil {
		return err
	}
	defer j.Close()
	index, err := j.Append(arena)
	if err != nil {
		return err
	}
	log.Info("Saved call trace", "journal", config.Journal.Dir, "index", index)
	return nil
}

func printArena(ctx *cli.Context, w io.Writer, arena *trace.CallTraceArena, format string) error {
	switch format {
	case "tree":
		noColor := ctx.GlobalBool(noColorFlag.Name) || !isatty.IsTerminal(os.Stdout.Fd())
		return render.Tree(w, arena, &render.Options{NoColor: noColor, Gas: ctx.Bool(gasFlag.Name)})
	case "dot":
		dot, err := render.DOT(arena)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, dot)
		return err
	case "json":
		return writeJSON(w, arena)
	case "parity":
		return writeJSON(w, arena.ParityTraces())
	case "geth":
		root := arena.Root()
		if root == nil {
			return writeJSON(w, nil)
		}
		return writeJSON(w, root.GethTrace())
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printMatches(w io.Writer, arena *trace.CallTraceArena, filter *trace.Filter) error {
	matches, err := arena.Select(filter)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Index", "Depth", "Kind", "Address", "Function", "Status"})
	for _, idx := range matches {
		n, err := arena.Node(idx)
		if err != nil {
			return err
		}
		callee := n.Trace.Address.Hex()
		if n.Trace.Label != "" {
			callee = n.Trace.Label + " (" + callee + ")"
		}
		function := ""
		if call, ok := n.Trace.Data.Decoded(); ok {
			function = call.Signature
		}
		table.Append([]string{
			strconv.Itoa(idx),
			strconv.Itoa(n.Trace.Depth),
			n.Kind().String(),
			callee,
			function,
			n.Status().String(),
		})
	}
	table.SetFooter([]string{"", "", "", "", "Matched", strconv.Itoa(len(matches))})
	table.Render()
	return nil
}
