//
// Created on 2023/2/22 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package extdb

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
)

// LabelIterator walks all stored address labels in key order.
type LabelIterator struct {
	it    ethdb.Iterator
	addr  common.Address
	label string
}

func (it *LabelIterator) Next() bool {
	for it.it.Next() {
		key := it.it.Key()
		if len(key) != len(AddressLabelPrefix)+common.AddressLength {
			continue
		}
		it.addr = common.BytesToAddress(key[len(AddressLabelPrefix):])
		it.label = string(it.it.Value())
		return true
	}
	return false
}

func (it *LabelIterator) Address() common.Address {
	return it.addr
}

func (it *LabelIterator) Label() string {
	return it.label
}

func (it *LabelIterator) Error() error {
	return it.it.Error()
}

func (it *LabelIterator) Release() {
	it.it.Release()
}

func NewLabelIterator(db ethdb.Iteratee) *LabelIterator {
	return &LabelIterator{it: db.NewIterator(AddressLabelPrefix, nil)}
}

// InterfaceIterator walks all stored interface abis.
type InterfaceIterator struct {
	it    ethdb.Iterator
	name  string
	value []byte
}

func (it *InterfaceIterator) Next() bool {
	for it.it.Next() {
		key := it.it.Key()
		if !bytes.HasSuffix(key, InterfaceABISuffix) || len(key) < len(InterfaceABIPrefix)+len(InterfaceABISuffix) {
			continue
		}
		it.name = string(key[len(InterfaceABIPrefix) : len(key)-len(InterfaceABISuffix)])
		it.value = common.CopyBytes(it.it.Value())
		return true
	}
	return false
}

func (it *InterfaceIterator) Name() string {
	return it.name
}

func (it *InterfaceIterator) Value() []byte {
	return it.value
}

func (it *InterfaceIterator) Error() error {
	return it.it.Error()
}

func (it *InterfaceIterator) Release() {
	it.it.Release()
}

func NewInterfaceIterator(db ethdb.Iteratee) *InterfaceIterator {
	return &InterfaceIterator{it: db.NewIterator(InterfaceABIPrefix, nil)}
}
