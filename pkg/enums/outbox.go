package enums

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateProperty    OutboxAggregateType = "property"
	AggregateApplication OutboxAggregateType = "application"
	AggregateLease       OutboxAggregateType = "lease"
)

var validAggregateTypes = set[OutboxAggregateType]{
	AggregateProperty,
	AggregateApplication,
	AggregateLease,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	return validAggregateTypes.has(a)
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return validAggregateTypes.parse("aggregate type", value)
}

// OutboxEventType names a domain event published to subscribers.
type OutboxEventType string

const (
	EventPropertyCreated          OutboxEventType = "property_created"
	EventApplicationSubmitted     OutboxEventType = "application_submitted"
	EventApplicationStatusChanged OutboxEventType = "application_status_changed"
	EventLeaseCreated             OutboxEventType = "lease_created"
)

var validOutboxEventTypes = set[OutboxEventType]{
	EventPropertyCreated,
	EventApplicationSubmitted,
	EventApplicationStatusChanged,
	EventLeaseCreated,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	return validOutboxEventTypes.has(e)
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return validOutboxEventTypes.parse("event type", value)
}
