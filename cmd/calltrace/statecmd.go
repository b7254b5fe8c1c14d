package main

import (
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
	"github.com/verichains/calltrace/provider"
	"gopkg.in/urfave/cli.v1"
)

var (
	stateCommand = cli.Command{
		Action:      showState,
		Name:        "state",
		ArgsUsage:   "<address>",
		Flags:       []cli.Flag{rpcFlag, blockFlag, slotFlag},
		Usage:       "Print the chain state of an account",
		Description: `This command reads balance, nonce, code and the given storage slots of an account from the chain data provider.`,
	}
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "",
		Flags:       []cli.Flag{abiFlag, labelFlag, workersFlag, noPrecompilesFlag},
		Description: `The dumpconfig command shows configuration values.`,
	}
)

func showState(ctx *cli.Context) error {
	if ctx.NArg() != 1 || !common.IsHexAddress(ctx.Args().Get(0)) {
		return fmt.Errorf("invalid arguments: %v", ctx.Command.ArgsUsage)
	}
	addr := common.HexToAddress(ctx.Args().Get(0))
	config, err := makeAppConfig(ctx)
	if err != nil {
		return err
	}
	var block *big.Int
	if number := ctx.Int64(blockFlag.Name); number >= 0 {
		block = big.NewInt(number)
	}
	p, err := provider.Dial(config.Provider.RPC)
	if err != nil {
		return err
	}
	defer p.Close()

	number, err := p.BlockNumber()
	if err != nil {
		return err
	}
	balance, err := p.BalanceAt(addr, block)
	if err != nil {
		return err
	}
	nonce, err := p.NonceAt(addr, block)
	if err != nil {
		return err
	}
	code, err := p.CodeAt(addr, block)
	if err != nil {
		return err
	}
	at := "latest"
	if block != nil {
		at = block.String()
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Address", addr.Hex()})
	table.Append([]string{"Block", fmt.Sprintf("%s (head %d)", at, number)})
	table.Append([]string{"Balance", balance.String()})
	table.Append([]string{"Nonce", fmt.Sprintf("%d", nonce)})
	table.Append([]string{"Code", fmt.Sprintf("%d bytes", len(code))})
	for _, slot := range ctx.StringSlice(slotFlag.Name) {
		key := common.HexToHash(slot)
		value, err := p.StorageAt(addr, key, block)
		if err != nil {
			return err
		}
		table.Append([]string{"Slot " + key.Hex(), hexutil.Encode(value)})
	}
	table.Render()
	return nil
}
