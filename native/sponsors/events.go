package sponsors

const (
	EventTypeRegistered = "sponsors.registered"
	EventTypeActivated  = "sponsors.activated"
)

// RegisteredEvent is emitted when an account receives its permanent direct
// sponsor.
type RegisteredEvent struct {
	Account [20]byte
	Sponsor [20]byte
}

func (RegisteredEvent) EventType() string { return EventTypeRegistered }

// ActivatedEvent is emitted the first time an account is activated for a
// campaign.
type ActivatedEvent struct {
	Account    [20]byte
	CampaignID [32]byte
}

func (ActivatedEvent) EventType() string { return EventTypeActivated }
