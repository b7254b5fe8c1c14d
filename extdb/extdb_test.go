package extdb

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/status-im/keycard-go/hexutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessors(t *testing.T) {
	db := memorydb.New()
	selector := hexutils.HexToBytes("a9059cbb")
	topic := common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	addr := common.HexToAddress("0xA73BC58956dC002Ab777452aa0b60d37B4f6d637")

	assert.Nil(t, ReadFourBytesABIs(db, selector))
	WriteFourBytesABIs(db, selector, []byte(`["transfer(address,uint256)"]`))
	assert.Equal(t, []byte(`["transfer(address,uint256)"]`), ReadFourBytesABIs(db, selector))

	WriteEventABIs(db, topic, []byte(`["Transfer(address,address,uint256)"]`))
	assert.Equal(t, []byte(`["Transfer(address,address,uint256)"]`), ReadEventABIs(db, topic))

	assert.Equal(t, "", ReadAddressLabel(db, addr))
	WriteAddressLabel(db, addr, "USDT")
	assert.Equal(t, "USDT", ReadAddressLabel(db, addr))

	WriteInterfaceABI(db, "IERC20", []byte(`{}`))
	assert.Equal(t, []byte(`{}`), ReadInterfaceABI(db, "IERC20"))

	assert.Equal(t, uint64(0), ReadSchemaVersion(db))
	WriteSchemaVersion(db, SchemaVersion)
	assert.Equal(t, SchemaVersion, ReadSchemaVersion(db))
	WriteLastImport(db, 1680000000)
	assert.Equal(t, uint64(1680000000), ReadLastImport(db))
}

func TestLabelIterator(t *testing.T) {
	db := memorydb.New()
	labels := map[common.Address]string{
		common.HexToAddress("0x01"): "ecrecover",
		common.HexToAddress("0x7109709ECfa91a80626fF3989D68f67F5b1DD12D"): "VM",
	}
	for addr, label := range labels {
		WriteAddressLabel(db, addr, label)
	}
	// unrelated keys must be skipped
	WriteInterfaceABI(db, "IERC20", []byte(`{}`))

	it := NewLabelIterator(db)
	defer it.Release()
	found := make(map[common.Address]string)
	for it.Next() {
		found[it.Address()] = it.Label()
	}
	require.NoError(t, it.Error())
	assert.Equal(t, labels, found)
}

func TestInterfaceIterator(t *testing.T) {
	db := memorydb.New()
	WriteInterfaceABI(db, "IERC20", []byte(`{"name":"IERC20"}`))
	WriteInterfaceABI(db, "IERC721", []byte(`{"name":"IERC721"}`))

	it := NewInterfaceIterator(db)
	defer it.Release()
	names := []string{}
	for it.Next() {
		names = append(names, it.Name())
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"IERC20", "IERC721"}, names)
}

func TestInspectDatabase(t *testing.T) {
	db := memorydb.New()
	WriteFourBytesABIs(db, hexutils.HexToBytes("a9059cbb"), []byte(`[]`))
	WriteAddressLabel(db, common.HexToAddress("0x01"), "ecrecover")
	WriteSchemaVersion(db, SchemaVersion)

	var buf bytes.Buffer
	require.NoError(t, InspectDatabase(&buf, db, nil, nil))
	out := buf.String()
	assert.Contains(t, out, "Method Signatures")
	assert.Contains(t, out, "Address Labels")
	assert.Contains(t, out, "Metadata")
}
