package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/verichains/calltrace/journal"
	"gopkg.in/urfave/cli.v1"
)

var (
	journalCommand = cli.Command{
		Name:     "journal",
		Usage:    "Inspect the archive of decoded call traces",
		Category: "JOURNAL COMMANDS",
		Subcommands: []cli.Command{
			journalListCmd,
			journalShowCmd,
		},
	}
	journalListCmd = cli.Command{
		Action: listJournal,
		Name:   "list",
		Flags:  []cli.Flag{journalDirFlag},
		Usage:  "List the archived call traces",
	}
	journalShowCmd = cli.Command{
		Action:    showJournal,
		Name:      "show",
		ArgsUsage: "<index>",
		Flags: []cli.Flag{
			journalDirFlag,
			abiFlag,
			labelFlag,
			workersFlag,
			noPrecompilesFlag,
			formatFlag,
			gasFlag,
		},
		Usage:       "Decode and print an archived call trace",
		Description: `The journal only keeps recorded data, the trace is decoded again with the current abis and signatures before printing.`,
	}
)

func openJournal(ctx *cli.Context) (*appConfig, *journal.Journal, error) {
	config, err := makeAppConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	if config.Journal.Dir == "" {
		return nil, nil, fmt.Errorf("no journal directory, use --%s", journalDirFlag.Name)
	}
	j, err := journal.Open(config.Journal.Dir)
	if err != nil {
		return nil, nil, err
	}
	return config, j, nil
}

func listJournal(ctx *cli.Context) error {
	_, j, err := openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()
	first, err := j.FirstIndex()
	if err != nil {
		return err
	}
	last, err := j.LastIndex()
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Index", "Time", "Calls", "Root", "Status"})
	for index := first; index > 0 && index <= last; index++ {
		arena, err := j.Read(index)
		if err != nil {
			return err
		}
		ts, err := j.Time(index)
		if err != nil {
			return err
		}
		row := []string{strconv.FormatUint(index, 10), ts.Format(time.RFC3339), strconv.Itoa(arena.Len()), "", ""}
		if root := arena.Root(); root != nil {
			row[3] = root.Trace.Address.Hex()
			row[4] = root.Status().String()
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

func showJournal(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("invalid number of arguments: %v", ctx.Command.ArgsUsage)
	}
	index, err := strconv.ParseUint(ctx.Args().Get(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid journal index: %v", err)
	}
	config, j, err := openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()
	arena, err := j.Read(index)
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
	return printArena(ctx, os.Stdout, arena, ctx.String(formatFlag.Name))
}
