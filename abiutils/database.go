package abiutils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/verichains/calltrace/extdb"
)

type ABIElements []ABIElement

func (list *ABIElements) addUnique(item ABIElement) bool {
	for _, entry := range *list {
		if item.Type == entry.Type && item.Identifier() == entry.Identifier() {
			return false
		}
	}
	*list = append(*list, item)
	return true
}

func (list *ABIElements) UnmarshalJSON(data []byte) error {
	if text, err := strconv.Unquote(string(data)); err == nil {
		entry, err := ParseMethodSig(text)
		if err != nil {
			return err
		}
		*list = append(*list, entry)
		return nil
	}

	rawEntries := []json.RawMessage{}
	if err := json.Unmarshal(data, &rawEntries); err != nil {
		return err
	}
	for _, raw := range rawEntries {
		var (
			entry ABIElement
			err   error
		)
		if text, qerr := strconv.Unquote(string(raw)); qerr == nil {
			entry, err = ParseMethodSig(text)
		} else {
			err = json.Unmarshal(raw, &entry)
		}
		if err != nil {
			return err
		}
		*list = append(*list, entry)
	}
	return nil
}

// asType forces every element of the list into typ, used for lists of
// human readable signatures imported under a typed section.
func (list ABIElements) asType(typ string) ABIElements {
	ret := make(ABIElements, len(list))
	for i, elem := range list {
		elem.Type = typ
		if typ != "function" {
			elem.StateMutability = ""
		}
		ret[i] = elem
	}
	return ret
}

func UnmarshalABI(data []byte) (ABIElements, error) {
	list := ABIElements{}
	err := json.Unmarshal(data, &list)
	return list, err
}

func readFourBytesABIs(db ethdb.KeyValueReader, fourbytes []byte) ABIElements {
	ret := ABIElements{}
	if data := extdb.ReadFourBytesABIs(db, fourbytes); len(data) > 0 {
		if err := json.Unmarshal(data, &ret); err != nil {
			log.Debug("Invalid 4-bytes abi entries", "selector", hex.EncodeToString(fourbytes), "err", err)
		}
	}
	return ret
}

func readEventABIs(db ethdb.KeyValueReader, topic common.Hash) ABIElements {
	ret := ABIElements{}
	if data := extdb.ReadEventABIs(db, topic); len(data) > 0 {
		if err := json.Unmarshal(data, &ret); err != nil {
			log.Debug("Invalid event abi entries", "topic", topic, "err", err)
		}
	}
	return ret.asType("event")
}

// mergeABIs merges list into the stored list unless override is set,
// returns nil if nothing changed.
func mergeABIs(stored, list ABIElements, override bool) ABIElements {
	if override {
		return list
	}
	modified := false
	for _, entry := range list {
		modified = stored.addUnique(entry) || modified
	}
	if !modified {
		return nil
	}
	return stored
}

func import4BytesABIs(db ethdb.Database, abis map[string]ABIElements, override bool) (int, error) {
	if len(abis) == 0 {
		return 0, nil
	}
	imported := 0
	batch := db.NewBatch()
	for id, list := range abis {
		fourbytes, err := hex.DecodeString(strings.TrimPrefix(id, "0x"))
		if err != nil || len(fourbytes) != 4 {
			log.Warn("Skipping invalid 4-bytes selector", "id", id)
			continue
		}
		elems := mergeABIs(readFourBytesABIs(db, fourbytes), list.asType("function"), override)
		if len(elems) > 0 {
			data, err := json.Marshal(elems)
			if err != nil {
				return 0, err
			}
			extdb.WriteFourBytesABIs(batch, fourbytes, data)
			imported += len(elems)
		}
	}
	return imported, batch.Write()
}

func importEventABIs(db ethdb.Database, abis map[string]ABIElements, override bool) (int, error) {
	if len(abis) == 0 {
		return 0, nil
	}
	imported := 0
	batch := db.NewBatch()
	for id, list := range abis {
		raw, err := hex.DecodeString(strings.TrimPrefix(id, "0x"))
		if err != nil || len(raw) != common.HashLength {
			log.Warn("Skipping invalid event topic", "id", id)
			continue
		}
		topic := common.BytesToHash(raw)
		elems := mergeABIs(readEventABIs(db, topic), list.asType("event"), override)
		if len(elems) > 0 {
			data, err := json.Marshal(elems)
			if err != nil {
				return 0, err
			}
			extdb.WriteEventABIs(batch, topic, data)
			imported += len(elems)
		}
	}
	return imported, batch.Write()
}

// rawInterface is data struct hold information about an contract interface to be stored in extdb
type rawInterface struct {
	Name string       `json:"name"` // Name of interface
	ABI  []ABIElement `json:"abi"`  // List of signatures fo methods, events, errors
}

func readInterfaceABIs(db ethdb.Iteratee) []rawInterface {
	it := extdb.NewInterfaceIterator(db)
	defer it.Release()
	ret := make([]rawInterface, 0)
	for it.Next() {
		raw := rawInterface{}
		if err := json.Unmarshal(it.Value(), &raw); err != nil {
			log.Error("Could not load interface abi", "name", it.Name(), "err", err)
			continue
		}
		ret = append(ret, raw)
	}
	return ret
}

func importInterfaces(db ethdb.Database, ifs map[string]ABIElements, override bool) (int, int, error) {
	batch := db.NewBatch()
	importList := []rawInterface{}
	for name, item := range ifs {
		raw := rawInterface{name, item}
		if override {
			importList = append(importList, raw)
		} else if exists, _ := db.Has(extdb.InterfaceABIKey(name)); !exists {
			importList = append(importList, raw)
		}
	}
	numEntries := 0
	for _, item := range importList {
		data, err := json.Marshal(item)
		if err != nil {
			return 0, 0, err
		}
		extdb.WriteInterfaceABI(batch, item.Name, data)
		numEntries += len(item.ABI)
	}
	return len(importList), numEntries, batch.Write()
}

func importLabels(db ethdb.Database, labels map[common.Address]string, override bool) (int, error) {
	batch := db.NewBatch()
	imported := 0
	for addr, label := range labels {
		if !override && extdb.ReadAddressLabel(db, addr) != "" {
			continue
		}
		extdb.WriteAddressLabel(batch, addr, label)
		imported++
	}
	return imported, batch.Write()
}

// ImportABIsData imports a json document of the form
//
//	{"4bytes": {"a9059cbb": ["transfer(address,uint256)"]},
//	 "events": {"ddf252ad...": ["Transfer(address indexed,address indexed,uint256)"]},
//	 "interfaces": {"IERC20": [...]},
//	 "labels": {"0x...": "USDT"}}
//
// Entries are merged with existing ones unless override is set.
func ImportABIsData(db ethdb.Database, reader io.Reader, override bool) error {
	dec := json.NewDecoder(reader)
	var data struct {
		FourBytes  map[string]ABIElements    `json:"4bytes"`     // 4-bytes sigs to abi list
		Events     map[string]ABIElements    `json:"events"`     // topic0 to abi list
		Interfaces map[string]ABIElements    `json:"interfaces"` // interface name to abi list
		Labels     map[common.Address]string `json:"labels"`     // address to display label
	}
	if err := dec.Decode(&data); err != nil {
		return err
	}

	abiCount, err := import4BytesABIs(db, data.FourBytes, override)
	if err != nil {
		log.Error("Could not import 4-bytes ABI entries", "error", err)
		return err
	}
	log.Info(fmt.Sprintf("Imported %d 4-bytes ABI entries", abiCount))

	eventCount, err := importEventABIs(db, data.Events, override)
	if err != nil {
		log.Error("Could not import event ABI entries", "error", err)
		return err
	}
	log.Info(fmt.Sprintf("Imported %d event ABI entries", eventCount))

	ifCount, abiCount, err := importInterfaces(db, data.Interfaces, override)
	if err != nil {
		log.Error("Could not import contract interfaces", "error", err)
		return err
	}
	log.Info(fmt.Sprintf("Imported %d contract interfaces, total ABI entries: %d", ifCount, abiCount))

	labelCount, err := importLabels(db, data.Labels, override)
	if err != nil {
		log.Error("Could not import address labels", "error", err)
		return err
	}
	log.Info(fmt.Sprintf("Imported %d address labels", labelCount))

	extdb.WriteSchemaVersion(db, extdb.SchemaVersion)
	extdb.WriteLastImport(db, uint64(time.Now().Unix()))
	return nil
}
