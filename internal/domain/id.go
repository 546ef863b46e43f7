package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// EventRecordID = "<tx_hash>-<log_index>" (tx hash canonicalized to lower).
func EventRecordID(txHash string, logIndex uint32) string {
	return strings.ToLower(txHash) + "-" + strconv.FormatUint(uint64(logIndex), 10)
}

type ParsedEventRecordID struct {
	TxHash   string
	LogIndex uint32
}

func ParseEventRecordID(id string) (ParsedEventRecordID, error) {
	var out ParsedEventRecordID

	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return out, fmt.Errorf("invalid event record id format: %s", id)
	}

	logIdx, err := strconv.ParseUint(id[i+1:], 10, 32)
	if err != nil {
		return out, fmt.Errorf("invalid log_index, err=%v", err)
	}

	out.TxHash = strings.ToLower(id[:i])
	out.LogIndex = uint32(logIdx)

	return out, nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
