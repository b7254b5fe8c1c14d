package abiutils

import (
	"fmt"
	"io"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru"
	"github.com/verichains/calltrace/extdb"
)

const defaultSigCacheSize = 4096

// SignatureDB resolves selectors and event topics to known abi definitions
// stored in the extdb, caching recent lookups. Lookups are safe for
// concurrent use, Import is not.
type SignatureDB struct {
	diskdb      ethdb.Database
	methodCache *lru.Cache // MethodId -> []abi.Method
	eventCache  *lru.Cache // common.Hash -> []abi.Event
	labelCache  *lru.Cache // common.Address -> string
	interfaces  map[string]Interface
}

func (db *SignatureDB) DiskDB() ethdb.Database {
	return db.diskdb
}

// Methods returns all known functions for the selector, in import order.
func (db *SignatureDB) Methods(id MethodId) []abi.Method {
	if cached, ok := db.methodCache.Get(id); ok {
		return cached.([]abi.Method)
	}
	methods := make([]abi.Method, 0)
	for _, elem := range readFourBytesABIs(db.diskdb, id[:]) {
		if elem.Selector() != id {
			log.Debug("Mismatched 4-bytes abi entry", "selector", id, "sig", elem.Identifier())
			continue
		}
		methods = append(methods, elem.Method())
	}
	for _, name := range sortedNames(db.interfaces) {
		for _, method := range db.interfaces[name].Methods {
			if mid, _ := BytesToMethodId(method.ID); mid == id && !containsMethod(methods, method) {
				methods = append(methods, method)
			}
		}
	}
	db.methodCache.Add(id, methods)
	return methods
}

// Events returns all known events for topic0.
func (db *SignatureDB) Events(topic common.Hash) []abi.Event {
	if cached, ok := db.eventCache.Get(topic); ok {
		return cached.([]abi.Event)
	}
	events := make([]abi.Event, 0)
	for _, elem := range readEventABIs(db.diskdb, topic) {
		if elem.Topic() != topic {
			continue
		}
		events = append(events, elem.Event())
	}
	for _, name := range sortedNames(db.interfaces) {
		for _, event := range db.interfaces[name].Events {
			if event.ID == topic {
				events = append(events, event)
			}
		}
	}
	db.eventCache.Add(topic, events)
	return events
}

// Errors returns every custom error declared by a stored interface.
func (db *SignatureDB) Errors() *abi.ABI {
	ret := &abi.ABI{Errors: make(map[string]abi.Error)}
	for _, name := range sortedNames(db.interfaces) {
		for errName, e := range db.interfaces[name].Errors {
			if _, exists := ret.Errors[errName]; !exists {
				ret.Errors[errName] = e
			}
		}
	}
	return ret
}

// Label returns the stored display label of addr.
func (db *SignatureDB) Label(addr common.Address) (string, bool) {
	if cached, ok := db.labelCache.Get(addr); ok {
		label := cached.(string)
		return label, label != ""
	}
	label := extdb.ReadAddressLabel(db.diskdb, addr)
	db.labelCache.Add(addr, label)
	return label, label != ""
}

// Labels returns all stored address labels.
func (db *SignatureDB) Labels() map[common.Address]string {
	ret := make(map[common.Address]string)
	it := extdb.NewLabelIterator(db.diskdb)
	defer it.Release()
	for it.Next() {
		ret[it.Address()] = it.Label()
	}
	return ret
}

func (db *SignatureDB) Interface(name string) (Interface, bool) {
	item, ok := db.interfaces[name]
	return item, ok
}

// Import loads a json signature document into the database and drops
// every cached lookup.
func (db *SignatureDB) Import(reader io.Reader, override bool) error {
	if err := ImportABIsData(db.diskdb, reader, override); err != nil {
		return err
	}
	db.methodCache.Purge()
	db.eventCache.Purge()
	db.labelCache.Purge()
	db.interfaces = loadInterfaces(db.diskdb)
	return nil
}

func sortedNames(ifs map[string]Interface) []string {
	names := make([]string, 0, len(ifs))
	for name := range ifs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsMethod(methods []abi.Method, method abi.Method) bool {
	for _, m := range methods {
		if m.Sig == method.Sig {
			return true
		}
	}
	return false
}

func loadInterfaces(db ethdb.Database) map[string]Interface {
	interfaces := make(map[string]Interface)
	for _, rawIf := range readInterfaceABIs(db) {
		item, err := NewInterface(rawIf.Name, rawIf.ABI)
		if err != nil {
			log.Error("Invalid contract interface", "name", rawIf.Name, "error", err)
			continue
		}
		interfaces[item.Name] = item
	}
	log.Debug(fmt.Sprintf("Loaded %d contract interfaces", len(interfaces)))
	return interfaces
}

func NewSignatureDB(diskdb ethdb.Database, cacheSize int) (*SignatureDB, error) {
	if cacheSize <= 0 {
		cacheSize = defaultSigCacheSize
	}
	methodCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	eventCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	labelCache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &SignatureDB{
		diskdb:      diskdb,
		methodCache: methodCache,
		eventCache:  eventCache,
		labelCache:  labelCache,
		interfaces:  loadInterfaces(diskdb),
	}, nil
}
