//
// Created on 2023/3/2 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package extdb

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
)

type counter uint64

func (c counter) String() string {
	return fmt.Sprintf("%d", c)
}

// stat stores sizes and count for a parameter
type stat struct {
	size  common.StorageSize
	count counter
}

// Add size to the stat and increase the counter by 1
func (s *stat) Add(size common.StorageSize) {
	s.size += size
	s.count++
}

func (s *stat) Size() string {
	return s.size.String()
}

func (s *stat) Count() string {
	return s.count.String()
}

// InspectDatabase traverses the signature database and writes the size of each category of data to w.
func InspectDatabase(w io.Writer, db ethdb.Iteratee, keyPrefix, keyStart []byte) error {
	it := db.NewIterator(keyPrefix, keyStart)
	defer it.Release()

	var (
		count  int64
		start  = time.Now()
		logged = time.Now()

		// Key-value store statistics
		methods       stat
		events        stat
		labels        stat
		interfaceABIs stat

		// Meta- and unaccounted data
		metadata    stat
		unaccounted stat

		// Totals
		total common.StorageSize
	)
	// Inspect key-value database first.
	for it.Next() {
		var (
			key  = it.Key()
			size = common.StorageSize(len(key) + len(it.Value()))
		)
		total += size
		switch {
		case bytes.HasPrefix(key, FourBytesMethodPrefix) && len(key) == (len(FourBytesMethodPrefix)+4):
			methods.Add(size)
		case bytes.HasPrefix(key, EventTopicPrefix) && len(key) == (len(EventTopicPrefix)+common.HashLength):
			events.Add(size)
		case bytes.HasPrefix(key, AddressLabelPrefix) && len(key) == (len(AddressLabelPrefix)+common.AddressLength):
			labels.Add(size)
		case bytes.HasPrefix(key, InterfaceABIPrefix) && bytes.HasSuffix(key, InterfaceABISuffix):
			interfaceABIs.Add(size)
		default:
			var accounted bool
			for _, meta := range [][]byte{SchemaVersionKey, LastImportKey} {
				if bytes.Equal(key, meta) {
					metadata.Add(size)
					accounted = true
					break
				}
			}
			if !accounted {
				unaccounted.Add(size)
			}
		}
		count++
		if count%1000 == 0 && time.Since(logged) > 8*time.Second {
			log.Info("Inspecting database", "count", count, "elapsed", common.PrettyDuration(time.Since(start)))
			logged = time.Now()
		}
	}

	// Display the database statistic.
	stats := [][]string{
		{"Key-Value store", "Method Signatures", methods.Size(), methods.Count()},
		{"Key-Value store", "Event Signatures", events.Size(), events.Count()},
		{"Key-Value store", "Address Labels", labels.Size(), labels.Count()},
		{"Key-Value store", "Interface ABIs", interfaceABIs.Size(), interfaceABIs.Count()},
		{"Key-Value store", "Metadata", metadata.Size(), metadata.Count()},
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Database", "Category", "Size", "Items"})
	table.SetFooter([]string{"", "Total", total.String(), " "})
	table.AppendBulk(stats)
	table.Render()

	if unaccounted.size > 0 {
		log.Error("Database contains unaccounted data", "size", unaccounted.size, "count", unaccounted.count)
	}
	return nil
}
