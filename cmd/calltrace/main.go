package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/verichains/calltrace/abiutils"
	"github.com/verichains/calltrace/decoder"
	"gopkg.in/urfave/cli.v1"
)

const (
	sigDatabaseName      = "sigdb"
	sigDatabaseNamespace = "calltrace/db/sigdb/"
	sigCacheSize         = 4096
)

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app *cli.App
)

func init() {
	app = cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Usage = "Decode and inspect EVM call traces"
	app.Version = fmt.Sprintf("%s - %s ", gitCommit, gitDate)
	app.Flags = []cli.Flag{
		configFileFlag,
		dataDirFlag,
		journalDirFlag,
		rpcFlag,
		verbosityFlag,
		noColorFlag,
	}
	app.Commands = []cli.Command{
		decodeCommand,
		import4BytesCommand,
		extdbCommand,
		journalCommand,
		stateCommand,
		dumpConfigCommand,
	}
	app.Before = setupLogging
}

func setupLogging(ctx *cli.Context) error {
	useColor := !ctx.GlobalBool(noColorFlag.Name) && isatty.IsTerminal(os.Stderr.Fd())
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name)), useColor)
	log.SetDefault(log.NewLogger(handler))
	return nil
}

// Fatalf formats a message to standard error and exits the program.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

func openDatabase(config *appConfig, readonly bool) (ethdb.Database, error) {
	if config.Database.DataDir == "" {
		log.Debug("No data directory, using in-memory signature database")
		return rawdb.NewMemoryDatabase(), nil
	}
	file := filepath.Join(config.Database.DataDir, sigDatabaseName)
	kvdb, err := leveldb.New(file, config.Database.Cache, config.Database.Handles, sigDatabaseNamespace, readonly)
	if err != nil {
		return nil, fmt.Errorf("could not open database %s: %w", file, err)
	}
	return rawdb.NewDatabase(kvdb), nil
}

// makeDecoder creates a decoder loaded with the configured abis and labels,
// backed by the signature database.
func makeDecoder(config *appConfig, db ethdb.Database) (*decoder.CallTraceDecoder, error) {
	sigdb, err := abiutils.NewSignatureDB(db, sigCacheSize)
	if err != nil {
		return nil, err
	}
	dec, err := decoder.NewCallTraceDecoder(config.decoderConfig(), sigdb)
	if err != nil {
		return nil, err
	}
	files := append([]string{}, config.Decoder.ABIs...)
	if config.Decoder.CheatcodeABI != "" {
		files = append(files, config.Decoder.CheatcodeABI)
	}
	for _, file := range files {
		parsed, err := loadABIFile(file)
		if err != nil {
			dec.Close()
			return nil, err
		}
		dec.AddABI(parsed)
		log.Debug("Loaded contract abi", "file", file, "methods", len(parsed.Methods), "events", len(parsed.Events), "errors", len(parsed.Errors))
	}
	labels, err := config.labels()
	if err != nil {
		dec.Close()
		return nil, err
	}
	for addr, label := range labels {
		dec.AddLabel(addr, label)
	}
	return dec, nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
