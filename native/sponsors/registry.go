package sponsors

import (
	"lottobox/core/events"
	"lottobox/state"
)

// CommissionLevelBps is the fixed share paid to each active sponsor level,
// expressed in basis points of the total payment.
const CommissionLevelBps uint32 = 2500

// chainDepth is the number of sponsor levels eligible for commission:
// the buyer's direct sponsor and that sponsor's own direct sponsor.
const chainDepth = 2

// Commission names one payee in a resolved commission chain together with
// the share of the payment it earns.
type Commission struct {
	Payee [20]byte
	Bps   uint32
}

// State is the narrow view of the node state the registry depends on.
type State interface {
	KVPut(key []byte, value interface{}) error
	KVGet(key []byte, out interface{}) (bool, error)
}

// Registry owns the referral forest and the per-campaign activation flags.
// The direct-sponsor relation is assigned exactly once per account and is
// immutable afterwards; the forest is rooted at the registry's own root
// sentinel address, which is pre-seeded as its own sponsor so a cycle can
// never form.
type Registry struct {
	st      State
	emitter events.Emitter
	root    [20]byte
	factory [20]byte
}

// NewRegistry creates a sponsor registry rooted at the provided sentinel
// address.
func NewRegistry(st State, root [20]byte) *Registry {
	return &Registry{st: st, emitter: events.NoopEmitter{}, root: root}
}

// SetEmitter configures the event emitter used by the registry. Passing nil
// resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetFactory configures the orchestrator address allowed to drive
// activation-mutating entry points.
func (r *Registry) SetFactory(factory [20]byte) { r.factory = factory }

// Root returns the root sentinel address.
func (r *Registry) Root() [20]byte { return r.root }

// Initialize seeds the root sentinel as its own sponsor. It is safe to call
// on an already-initialized state.
func (r *Registry) Initialize() error {
	exists, err := r.st.KVGet(state.SponsorKey(r.root[:]), nil)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return r.st.KVPut(state.SponsorKey(r.root[:]), r.root)
}

// SponsorOf returns the permanent direct sponsor of an account, if one has
// been assigned.
func (r *Registry) SponsorOf(account [20]byte) ([20]byte, bool, error) {
	var sponsor [20]byte
	exists, err := r.st.KVGet(state.SponsorKey(account[:]), &sponsor)
	if err != nil {
		return [20]byte{}, false, err
	}
	return sponsor, exists, nil
}

// IsActive reports whether the account has been activated for the campaign.
func (r *Registry) IsActive(campaignID [32]byte, account [20]byte) (bool, error) {
	var active bool
	exists, err := r.st.KVGet(state.ActivationKey(campaignID, account[:]), &active)
	if err != nil {
		return false, err
	}
	return exists && active, nil
}

// Register assigns the permanent direct sponsor for an account. The sponsor
// must itself be registered; the root sentinel qualifies.
func (r *Registry) Register(account, sponsor [20]byte) error {
	if account == ([20]byte{}) {
		return ErrInvalidAccount
	}
	_, registered, err := r.SponsorOf(account)
	if err != nil {
		return err
	}
	if registered {
		return ErrAlreadyRegistered
	}
	_, sponsorRegistered, err := r.SponsorOf(sponsor)
	if err != nil {
		return err
	}
	if !sponsorRegistered {
		return ErrUnregisteredSponsor
	}
	if err := r.st.KVPut(state.SponsorKey(account[:]), sponsor); err != nil {
		return err
	}
	r.emitter.Emit(RegisteredEvent{Account: account, Sponsor: sponsor})
	return nil
}

// RegisterAndActivate registers the buyer when necessary and marks it active
// for the campaign. An already-registered buyer keeps its stored sponsor and
// the supplied sponsor argument is ignored; a zero sponsor defaults to the
// root sentinel. Only the configured orchestrator may invoke this entry
// point.
func (r *Registry) RegisterAndActivate(caller, buyer, sponsor [20]byte, campaignID [32]byte) error {
	if caller != r.factory || r.factory == ([20]byte{}) {
		return ErrUnauthorizedCaller
	}
	if buyer == ([20]byte{}) {
		return ErrInvalidAccount
	}
	_, registered, err := r.SponsorOf(buyer)
	if err != nil {
		return err
	}
	if !registered {
		if sponsor == ([20]byte{}) {
			sponsor = r.root
		}
		if err := r.Register(buyer, sponsor); err != nil {
			return err
		}
	}
	active, err := r.IsActive(campaignID, buyer)
	if err != nil {
		return err
	}
	if active {
		return nil
	}
	if err := r.st.KVPut(state.ActivationKey(campaignID, buyer[:]), true); err != nil {
		return err
	}
	r.emitter.Emit(ActivatedEvent{Account: buyer, CampaignID: campaignID})
	return nil
}

// CommissionChain resolves the payees owed a commission for a purchase by
// the buyer in the campaign. Each of the two sponsor levels earns a fixed
// share when activated for the campaign; the root sentinel terminates the
// walk and earns nothing. Unlisted shares accrue to the campaign pool.
func (r *Registry) CommissionChain(campaignID [32]byte, buyer [20]byte) ([]Commission, error) {
	chain := make([]Commission, 0, chainDepth)
	current := buyer
	for level := 0; level < chainDepth; level++ {
		payee, registered, err := r.SponsorOf(current)
		if err != nil {
			return nil, err
		}
		if !registered || payee == r.root {
			break
		}
		active, err := r.IsActive(campaignID, payee)
		if err != nil {
			return nil, err
		}
		if active {
			chain = append(chain, Commission{Payee: payee, Bps: CommissionLevelBps})
		}
		current = payee
	}
	return chain, nil
}
