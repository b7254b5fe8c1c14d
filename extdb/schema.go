//
// Created on 2023/2/21 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package extdb

import (
	"github.com/ethereum/go-ethereum/common"
)

var (
	SchemaVersionKey = []byte("SchemaVersion") // SchemaVersionKey tracks the layout version of the signature database.
	LastImportKey    = []byte("LastImport")    // LastImportKey tracks the unix time of the last signature import.

	FourBytesMethodPrefix = []byte("m") // FourBytesMethodPrefix + selector -> json abi list
	EventTopicPrefix      = []byte("e") // EventTopicPrefix + topic0 -> json abi list
	AddressLabelPrefix    = []byte("l") // AddressLabelPrefix + address -> label
	InterfaceABIPrefix    = []byte("i") // InterfaceABIPrefix + name + InterfaceABISuffix -> json interface
	InterfaceABISuffix    = []byte("abi")
)

const SchemaVersion uint64 = 1

func fourBytesKey(selector []byte) []byte {
	return append(append([]byte{}, FourBytesMethodPrefix...), selector...)
}

func eventTopicKey(topic common.Hash) []byte {
	return append(append([]byte{}, EventTopicPrefix...), topic.Bytes()...)
}

func addressLabelKey(addr common.Address) []byte {
	return append(append([]byte{}, AddressLabelPrefix...), addr.Bytes()...)
}

func InterfaceABIKey(name string) []byte {
	key := append(append([]byte{}, InterfaceABIPrefix...), []byte(name)...)
	return append(key, InterfaceABISuffix...)
}
