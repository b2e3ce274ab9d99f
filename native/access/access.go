package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nutvest/core/events"
)

// Capability names an authority a principal may hold.
type Capability string

const (
	Admin    Capability = "admin"
	Minter   Capability = "minter"
	Pauser   Capability = "pauser"
	Unlock   Capability = "unlock"
	Transfer Capability = "transfer"
	Rescue   Capability = "rescue"
)

var (
	ErrUnauthorized      = errors.New("access: unauthorized")
	ErrUnknownCapability = errors.New("access: unknown capability")
	ErrZeroPrincipal     = errors.New("access: principal must not be the zero address")
)

var known = map[Capability]struct{}{
	Admin: {}, Minter: {}, Pauser: {}, Unlock: {}, Transfer: {}, Rescue: {},
}

// ParseCapability normalises a capability name.
func ParseCapability(name string) (Capability, error) {
	c := Capability(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := known[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return c, nil
}

// Authorizer answers capability checks. Engines depend on this interface only.
type Authorizer interface {
	HasCapability(principal common.Address, capability Capability) (bool, error)
}

// Require returns ErrUnauthorized unless the principal holds the capability.
func Require(auth Authorizer, principal common.Address, capability Capability) error {
	if auth == nil {
		return fmt.Errorf("%w: no authorizer configured", ErrUnauthorized)
	}
	ok, err := auth.HasCapability(principal, capability)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s lacks %s", ErrUnauthorized, strings.ToLower(principal.Hex()), capability)
	}
	return nil
}

// RequireAny succeeds when the principal holds at least one capability.
func RequireAny(auth Authorizer, principal common.Address, capabilities ...Capability) error {
	var last error
	for _, c := range capabilities {
		err := Require(auth, principal, c)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return err
		}
		last = err
	}
	if last == nil {
		last = ErrUnauthorized
	}
	return last
}

// State persists capability grants.
type State interface {
	HasCapability(capability string, principal common.Address) (bool, error)
	SetCapability(capability string, principal common.Address, granted bool) error
}

// Registry is the capability map backed by state.
type Registry struct {
	state   State
	emitter events.Emitter
}

func NewRegistry(state State) *Registry {
	return &Registry{state: state, emitter: events.NoopEmitter{}}
}

func (r *Registry) SetState(state State) { r.state = state }

func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

func (r *Registry) HasCapability(principal common.Address, capability Capability) (bool, error) {
	if r == nil || r.state == nil {
		return false, fmt.Errorf("access: state not configured")
	}
	return r.state.HasCapability(string(capability), principal)
}

// Bootstrap grants a capability without an operator check. It is only used
// while seeding genesis state.
func (r *Registry) Bootstrap(principal common.Address, capability Capability) error {
	return r.set(principal, principal, capability, true)
}

// Grant gives the capability to principal. The operator must hold admin.
func (r *Registry) Grant(operator, principal common.Address, capability Capability) error {
	if err := Require(r, operator, Admin); err != nil {
		return err
	}
	return r.set(operator, principal, capability, true)
}

// Revoke removes the capability from principal. The operator must hold admin.
func (r *Registry) Revoke(operator, principal common.Address, capability Capability) error {
	if err := Require(r, operator, Admin); err != nil {
		return err
	}
	return r.set(operator, principal, capability, false)
}

func (r *Registry) set(operator, principal common.Address, capability Capability, granted bool) error {
	if r == nil || r.state == nil {
		return fmt.Errorf("access: state not configured")
	}
	if _, ok := known[capability]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCapability, capability)
	}
	if principal == (common.Address{}) {
		return ErrZeroPrincipal
	}
	if err := r.state.SetCapability(string(capability), principal, granted); err != nil {
		return err
	}
	r.emitter.Emit(events.CapabilityChanged{
		Operator:   operator,
		Principal:  principal,
		Capability: string(capability),
		Granted:    granted,
	})
	return nil
}
