package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mash-protocol/wifiprov/pkg/version"
)

// TXT record keys.
const (
	TXTKeyVersion  = "ver"
	TXTKeyScheme   = "scheme"
	TXTKeySecurity = "sec"
	TXTKeyPoP      = "pop"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for a provisioning endpoint.
func EncodeTXT(info ServiceInfo) TXTRecordMap {
	pop := "0"
	if info.PoPRequired {
		pop = "1"
	}
	return TXTRecordMap{
		TXTKeyVersion:  ProtocolVersion,
		TXTKeyScheme:   "softap",
		TXTKeySecurity: strconv.FormatUint(uint64(info.SecurityLevel), 10),
		TXTKeyPoP:      pop,
	}
}

// DecodeTXT parses TXT records back into service info. The instance name
// and port are not part of the TXT data. A missing ver record is accepted.
func DecodeTXT(txt TXTRecordMap) (ServiceInfo, error) {
	var info ServiceInfo

	if ver, ok := txt[TXTKeyVersion]; ok {
		compatible, err := version.CompatibleWithCurrent(ver)
		if err != nil || !compatible {
			return info, fmt.Errorf("%w: ver %q", ErrInvalidInfo, ver)
		}
	}

	if txt[TXTKeyScheme] != "softap" {
		return info, fmt.Errorf("%w: scheme %q", ErrInvalidInfo, txt[TXTKeyScheme])
	}

	sec, err := strconv.ParseUint(txt[TXTKeySecurity], 10, 8)
	if err != nil {
		return info, fmt.Errorf("%w: sec %q", ErrInvalidInfo, txt[TXTKeySecurity])
	}
	info.SecurityLevel = uint8(sec)

	switch txt[TXTKeyPoP] {
	case "0", "":
	case "1":
		info.PoPRequired = true
	default:
		return info, fmt.Errorf("%w: pop %q", ErrInvalidInfo, txt[TXTKeyPoP])
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXT map to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// StringsToTXTRecords parses "key=value" strings. Entries without '=' are
// stored with an empty value.
func StringsToTXTRecords(records []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		txt[k] = v
	}
	return txt
}
