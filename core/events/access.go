package events

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/types"
)

const (
	TypeCapabilityGranted = "capability.granted"
	TypeCapabilityRevoked = "capability.revoked"
)

type CapabilityChanged struct {
	Operator   common.Address
	Principal  common.Address
	Capability string
	Granted    bool
}

func (e CapabilityChanged) EventType() string {
	if e.Granted {
		return TypeCapabilityGranted
	}
	return TypeCapabilityRevoked
}

func (e CapabilityChanged) Event() *types.Event {
	return types.NewEvent(e.EventType()).
		With("operator", formatAddress(e.Operator)).
		With("principal", formatAddress(e.Principal)).
		With("capability", e.Capability).
		With("granted", strconv.FormatBool(e.Granted))
}
