//
// Created on 2023/4/14 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package provider

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/panjf2000/ants/v2"
)

var ErrProviderClosed = errors.New("provider closed")

// ChainReader is the chain data client wrapped by BlockingProvider,
// a nil block number means the latest block.
type ChainReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// BlockingProvider exposes a ChainReader to code that cannot wait on
// asynchronous results. Every call runs on a worker owned by the provider and
// blocks the caller until it completes. Errors of the client are returned
// unchanged, timeouts are up to the client.
type BlockingProvider struct {
	client ChainReader
	pool   *ants.Pool
}

func (p *BlockingProvider) run(task func(ctx context.Context)) error {
	done := make(chan struct{})
	err := p.pool.Submit(func() {
		defer close(done)
		task(context.Background())
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrProviderClosed
		}
		return err
	}
	<-done
	return nil
}

func call[T any](p *BlockingProvider, fn func(ctx context.Context) (T, error)) (T, error) {
	var (
		ret T
		err error
	)
	if runErr := p.run(func(ctx context.Context) { ret, err = fn(ctx) }); runErr != nil {
		return ret, runErr
	}
	return ret, err
}

func (p *BlockingProvider) BlockNumber() (uint64, error) {
	return call(p, func(ctx context.Context) (uint64, error) {
		return p.client.BlockNumber(ctx)
	})
}

func (p *BlockingProvider) BalanceAt(account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return call(p, func(ctx context.Context) (*big.Int, error) {
		return p.client.BalanceAt(ctx, account, blockNumber)
	})
}

func (p *BlockingProvider) NonceAt(account common.Address, blockNumber *big.Int) (uint64, error) {
	return call(p, func(ctx context.Context) (uint64, error) {
		return p.client.NonceAt(ctx, account, blockNumber)
	})
}

func (p *BlockingProvider) CodeAt(account common.Address, blockNumber *big.Int) ([]byte, error) {
	return call(p, func(ctx context.Context) ([]byte, error) {
		return p.client.CodeAt(ctx, account, blockNumber)
	})
}

func (p *BlockingProvider) StorageAt(account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error) {
	return call(p, func(ctx context.Context) ([]byte, error) {
		return p.client.StorageAt(ctx, account, key, blockNumber)
	})
}

// Copy returns a provider sharing the client but running on its own worker.
func (p *BlockingProvider) Copy() (*BlockingProvider, error) {
	return NewBlockingProvider(p.client)
}

// Close stops the worker, later calls fail with ErrProviderClosed.
func (p *BlockingProvider) Close() {
	p.pool.Release()
}

func NewBlockingProvider(client ChainReader) (*BlockingProvider, error) {
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	return &BlockingProvider{client: client, pool: pool}, nil
}

// Dial connects to an rpc endpoint and wraps the client.
func Dial(rawurl string) (*BlockingProvider, error) {
	client, err := ethclient.Dial(rawurl)
	if err != nil {
		return nil, err
	}
	log.Debug("Connected to chain data provider", "url", rawurl)
	return NewBlockingProvider(client)
}
