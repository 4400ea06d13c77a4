package snapshot

import (
	"bytes"
	"io"

	"github.com/minblock/qtipd/chainparams"
	"github.com/minblock/qtipd/chainscan"
	"github.com/minblock/qtipd/infinitynode"
	"github.com/minblock/qtipd/statement"
)

var statementTiers = []chainparams.Tier{chainparams.TierT1, chainparams.TierT5, chainparams.TierT10}

// SaveRegistry writes path as an infinitynode.dat snapshot: the matured-node
// map, the last-paid map, the scan cursor, and the three per-tier statement
// maps plus their six last-statement counters (spec.md §4.I).
func SaveRegistry(path, networkID string, registry *infinitynode.Registry, scanner *chainscan.Scanner, schedule *statement.Schedule) error {
	var buf bytes.Buffer

	matured := registry.FullMap()
	if err := writeUint32(&buf, uint32(len(matured))); err != nil {
		return err
	}
	for _, node := range matured {
		if err := writeNode(&buf, node); err != nil {
			return err
		}
	}

	lastPaid := registry.FullLastPaidMap()
	if err := writeUint32(&buf, uint32(len(lastPaid))); err != nil {
		return err
	}
	for script, height := range lastPaid {
		if err := writeBytes(&buf, []byte(script)); err != nil {
			return err
		}
		if err := writeInt64(&buf, height); err != nil {
			return err
		}
	}

	if err := writeInt64(&buf, scanner.LastScanHeight()); err != nil {
		return err
	}

	for _, tier := range statementTiers {
		sm := schedule.StatementMap(tier)
		if err := writeUint32(&buf, uint32(len(sm))); err != nil {
			return err
		}
		for start, size := range sm {
			if err := writeInt64(&buf, start); err != nil {
				return err
			}
			if err := writeUint32(&buf, uint32(size)); err != nil {
				return err
			}
		}
	}
	for _, tier := range statementTiers {
		start, size := schedule.LastStatement(tier)
		if err := writeInt64(&buf, start); err != nil {
			return err
		}
		if err := writeUint32(&buf, uint32(size)); err != nil {
			return err
		}
	}

	return writeFrame(path, MagicInfinityNodeCache, networkID, buf.Bytes())
}

// LoadRegistry reads path and installs its contents into registry, scanner,
// and schedule. A version mismatch returns ErrVersionMismatch; callers
// should treat that as "discard and rebuild from chain" rather than an
// error (spec.md §4.I).
func LoadRegistry(path, networkID string, registry *infinitynode.Registry, scanner *chainscan.Scanner, schedule *statement.Schedule) error {
	payload, err := readFrame(path, MagicInfinityNodeCache, networkID)
	if err != nil {
		return err
	}
	r := bytes.NewReader(payload)

	maturedCount, err := readUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < maturedCount; i++ {
		node, err := readNode(r)
		if err != nil {
			return err
		}
		registry.Add(node, true)
	}

	lastPaidCount, err := readUint32(r)
	if err != nil {
		return err
	}
	lastPaid := make(map[string]int64, lastPaidCount)
	for i := uint32(0); i < lastPaidCount; i++ {
		script, err := readBytes(r)
		if err != nil {
			return err
		}
		height, err := readInt64(r)
		if err != nil {
			return err
		}
		lastPaid[string(script)] = height
	}
	registry.LoadLastPaidMap(lastPaid)

	lastScanHeight, err := readInt64(r)
	if err != nil {
		return err
	}
	scanner.SetLastScanHeight(lastScanHeight)

	for _, tier := range statementTiers {
		count, err := readUint32(r)
		if err != nil {
			return err
		}
		sm := make(map[int64]int, count)
		for i := uint32(0); i < count; i++ {
			start, err := readInt64(r)
			if err != nil {
				return err
			}
			size, err := readUint32(r)
			if err != nil {
				return err
			}
			sm[start] = int(size)
		}
		schedule.LoadStatementMap(tier, sm)
	}
	// The six last-statement counters are implied by LoadStatementMap's own
	// recomputation from the tail of each restored map; the on-disk copies
	// are read here only to keep the file's byte layout self-describing.
	for range statementTiers {
		if _, err := readInt64(r); err != nil {
			return err
		}
		if _, err := readUint32(r); err != nil {
			return err
		}
	}

	return nil
}

func writeNode(w io.Writer, n *infinitynode.Node) error {
	if _, err := w.Write(n.BurnOutpoint.Hash[:]); err != nil {
		return err
	}
	if err := writeUint32(w, n.BurnOutpoint.Index); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(n.Tier)); err != nil {
		return err
	}
	if err := writeInt64(w, n.BurnHeight); err != nil {
		return err
	}
	if err := writeInt64(w, n.BurnValue); err != nil {
		return err
	}
	if err := writeBytes(w, n.ScriptPubKey); err != nil {
		return err
	}
	if err := writeString(w, n.CollateralAddress); err != nil {
		return err
	}
	if err := writeString(w, n.BackupAddress); err != nil {
		return err
	}
	if err := writeString(w, n.OperatorAddress); err != nil {
		return err
	}
	if err := writeString(w, n.Service); err != nil {
		return err
	}
	if err := writeInt64(w, n.MetadataHeight); err != nil {
		return err
	}
	if err := writeInt64(w, n.LastRewardHeight); err != nil {
		return err
	}
	return writeUint32(w, uint32(n.Rank))
}

func readNode(r io.Reader) (*infinitynode.Node, error) {
	n := &infinitynode.Node{}
	if _, err := io.ReadFull(r, n.BurnOutpoint.Hash[:]); err != nil {
		return nil, err
	}
	idx, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	n.BurnOutpoint.Index = idx

	tier, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	n.Tier = chainparams.Tier(tier)

	if n.BurnHeight, err = readInt64(r); err != nil {
		return nil, err
	}
	if n.BurnValue, err = readInt64(r); err != nil {
		return nil, err
	}
	if n.ScriptPubKey, err = readBytes(r); err != nil {
		return nil, err
	}
	if n.CollateralAddress, err = readString(r); err != nil {
		return nil, err
	}
	if n.BackupAddress, err = readString(r); err != nil {
		return nil, err
	}
	if n.OperatorAddress, err = readString(r); err != nil {
		return nil, err
	}
	if n.Service, err = readString(r); err != nil {
		return nil, err
	}
	if n.MetadataHeight, err = readInt64(r); err != nil {
		return nil, err
	}
	if n.LastRewardHeight, err = readInt64(r); err != nil {
		return nil, err
	}
	rank, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	n.Rank = int(rank)
	return n, nil
}
