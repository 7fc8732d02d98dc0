package processor

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/grantsync/indexer/pkg/store"
)

// tokenDecimals is the denomination of donation amounts on the wire
const tokenDecimals = 18

// Kind is the closed set of contract event types the indexer interprets.
// Events outside this set are recorded in the audit table but produce no
// domain projection.
type Kind int

const (
	KindUnknown Kind = iota
	KindGrantRegistered
	KindDonationReceived
	KindGrantStatusChanged
	KindRoundCreated
)

// WatchedEvents lists the event names the loops fetch from the registry
var WatchedEvents = []string{
	"GrantRegistered",
	"DonationReceived",
	"GrantStatusChanged",
	"RoundCreated",
}

// KindOf maps an event name to its Kind
func KindOf(eventName string) Kind {
	switch eventName {
	case "GrantRegistered":
		return KindGrantRegistered
	case "DonationReceived":
		return KindDonationReceived
	case "GrantStatusChanged":
		return KindGrantStatusChanged
	case "RoundCreated":
		return KindRoundCreated
	default:
		return KindUnknown
	}
}

// GrantRegistered is emitted when a proposer registers a new grant
type GrantRegistered struct {
	GrantID     int64
	Proposer    common.Address
	MetadataURI string
}

// DonationReceived is emitted when a donor funds a grant
type DonationReceived struct {
	GrantID int64
	Donor   common.Address
	Amount  decimal.Decimal
}

// GrantStatusChanged is emitted when a grant's lifecycle state changes
type GrantStatusChanged struct {
	GrantID int64
	Status  store.ProposalStatus
}

// RoundCreated is emitted when a new funding round opens
type RoundCreated struct {
	RoundID  int64
	Name     string
	StartsAt time.Time
	EndsAt   time.Time
}

func decodeGrantRegistered(args map[string]any) (*GrantRegistered, error) {
	grantID, err := argInt64(args, "grantId")
	if err != nil {
		return nil, err
	}
	proposer, err := argAddress(args, "proposer")
	if err != nil {
		return nil, err
	}
	metadataURI, err := argString(args, "metadataUri")
	if err != nil {
		return nil, err
	}
	return &GrantRegistered{
		GrantID:     grantID,
		Proposer:    proposer,
		MetadataURI: metadataURI,
	}, nil
}

func decodeDonationReceived(args map[string]any) (*DonationReceived, error) {
	grantID, err := argInt64(args, "grantId")
	if err != nil {
		return nil, err
	}
	donor, err := argAddress(args, "donor")
	if err != nil {
		return nil, err
	}
	amount, err := argBigInt(args, "amount")
	if err != nil {
		return nil, err
	}
	return &DonationReceived{
		GrantID: grantID,
		Donor:   donor,
		Amount:  decimal.NewFromBigInt(amount, -tokenDecimals),
	}, nil
}

func decodeGrantStatusChanged(args map[string]any) (*GrantStatusChanged, error) {
	grantID, err := argInt64(args, "grantId")
	if err != nil {
		return nil, err
	}
	raw, ok := args["status"]
	if !ok {
		return nil, fmt.Errorf("missing event argument status")
	}
	code, ok := raw.(uint8)
	if !ok {
		return nil, fmt.Errorf("event argument status has unexpected type %T", raw)
	}

	var status store.ProposalStatus
	switch code {
	case 0:
		status = store.ProposalStatusActive
	case 1:
		status = store.ProposalStatusPaused
	case 2:
		status = store.ProposalStatusClosed
	default:
		return nil, fmt.Errorf("unknown grant status code %d", code)
	}

	return &GrantStatusChanged{GrantID: grantID, Status: status}, nil
}

func decodeRoundCreated(args map[string]any) (*RoundCreated, error) {
	roundID, err := argInt64(args, "roundId")
	if err != nil {
		return nil, err
	}
	name, err := argString(args, "name")
	if err != nil {
		return nil, err
	}
	startsAt, err := argUnixTime(args, "startsAt")
	if err != nil {
		return nil, err
	}
	endsAt, err := argUnixTime(args, "endsAt")
	if err != nil {
		return nil, err
	}
	return &RoundCreated{
		RoundID:  roundID,
		Name:     name,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	}, nil
}

func argBigInt(args map[string]any, key string) (*big.Int, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("missing event argument %s", key)
	}
	v, ok := raw.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("event argument %s has unexpected type %T", key, raw)
	}
	return v, nil
}

func argInt64(args map[string]any, key string) (int64, error) {
	v, err := argBigInt(args, key)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("event argument %s out of range: %s", key, v)
	}
	return v.Int64(), nil
}

func argAddress(args map[string]any, key string) (common.Address, error) {
	raw, ok := args[key]
	if !ok {
		return common.Address{}, fmt.Errorf("missing event argument %s", key)
	}
	v, ok := raw.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("event argument %s has unexpected type %T", key, raw)
	}
	return v, nil
}

func argString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing event argument %s", key)
	}
	v, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("event argument %s has unexpected type %T", key, raw)
	}
	return v, nil
}

func argUnixTime(args map[string]any, key string) (time.Time, error) {
	raw, ok := args[key]
	if !ok {
		return time.Time{}, fmt.Errorf("missing event argument %s", key)
	}
	switch v := raw.(type) {
	case uint64:
		return time.Unix(int64(v), 0).UTC(), nil
	case *big.Int:
		if !v.IsInt64() {
			return time.Time{}, fmt.Errorf("event argument %s out of range: %s", key, v)
		}
		return time.Unix(v.Int64(), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("event argument %s has unexpected type %T", key, raw)
	}
}
