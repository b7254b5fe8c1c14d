//
// Created on 2023/2/21 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package extdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
)

func readUint64(db ethdb.KeyValueReader, key []byte) uint64 {
	data, _ := db.Get(key)
	if len(data) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func writeUint64(db ethdb.KeyValueWriter, key []byte, val uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], val)
	return db.Put(key, buf[:])
}

func ReadSchemaVersion(db ethdb.KeyValueReader) uint64 {
	return readUint64(db, SchemaVersionKey)
}

func WriteSchemaVersion(db ethdb.KeyValueWriter, version uint64) {
	if err := writeUint64(db, SchemaVersionKey, version); err != nil {
		log.Crit("Failed to store schema version", "err", err)
	}
}

func ReadLastImport(db ethdb.KeyValueReader) uint64 {
	return readUint64(db, LastImportKey)
}

func WriteLastImport(db ethdb.KeyValueWriter, timestamp uint64) {
	if err := writeUint64(db, LastImportKey, timestamp); err != nil {
		log.Crit("Failed to store last import time", "err", err)
	}
}

func ReadFourBytesABIs(db ethdb.KeyValueReader, selector []byte) []byte {
	data, _ := db.Get(fourBytesKey(selector))
	return data
}

func WriteFourBytesABIs(db ethdb.KeyValueWriter, selector []byte, data []byte) {
	if err := db.Put(fourBytesKey(selector), data); err != nil {
		log.Crit("Failed to store 4-bytes abi entries", "err", err)
	}
}

func ReadEventABIs(db ethdb.KeyValueReader, topic common.Hash) []byte {
	data, _ := db.Get(eventTopicKey(topic))
	return data
}

func WriteEventABIs(db ethdb.KeyValueWriter, topic common.Hash, data []byte) {
	if err := db.Put(eventTopicKey(topic), data); err != nil {
		log.Crit("Failed to store event abi entries", "err", err)
	}
}

func ReadAddressLabel(db ethdb.KeyValueReader, addr common.Address) string {
	data, _ := db.Get(addressLabelKey(addr))
	return string(data)
}

func WriteAddressLabel(db ethdb.KeyValueWriter, addr common.Address, label string) {
	if err := db.Put(addressLabelKey(addr), []byte(label)); err != nil {
		log.Crit("Failed to store address label", "err", err)
	}
}

func ReadInterfaceABI(db ethdb.KeyValueReader, name string) []byte {
	data, _ := db.Get(InterfaceABIKey(name))
	return data
}

func WriteInterfaceABI(db ethdb.KeyValueWriter, name string, data []byte) {
	if err := db.Put(InterfaceABIKey(name), data); err != nil {
		log.Crit("Failed to store interface abi", "err", err)
	}
}
