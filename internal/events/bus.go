package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventLicenseCreated     EventType = "LICENSE_CREATED"
	EventLicenseActivated   EventType = "LICENSE_ACTIVATED"
	EventLicenseUpdated     EventType = "LICENSE_UPDATED"
	EventLicenseRenewed     EventType = "LICENSE_RENEWED"
	EventRenewalRunStarted  EventType = "RENEWAL_RUN_STARTED"
	EventRenewalRunFinished EventType = "RENEWAL_RUN_FINISHED"
	EventTransactionCreated EventType = "TRANSACTION_CREATED"
	EventTransactionSettled EventType = "TRANSACTION_SETTLED"
	EventDeviceRegistered   EventType = "DEVICE_REGISTERED"
	EventWalletCredited     EventType = "WALLET_CREDITED"
	EventError              EventType = "ERROR"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishLicenseCreated publishes a license created event
func (eb *EventBus) PublishLicenseCreated(licenseID, key, licenseType, status string) {
	eb.Publish(Event{
		Type: EventLicenseCreated,
		Data: map[string]interface{}{
			"license_id":   licenseID,
			"license_key":  key,
			"license_type": licenseType,
			"status":       status,
		},
	})
}

// PublishLicenseActivated publishes a license activated event
func (eb *EventBus) PublishLicenseActivated(licenseID, key string, expiryDate *time.Time) {
	data := map[string]interface{}{
		"license_id":  licenseID,
		"license_key": key,
	}
	if expiryDate != nil {
		data["expiry_date"] = expiryDate.Format("2006-01-02")
	}
	eb.Publish(Event{
		Type: EventLicenseActivated,
		Data: data,
	})
}

// PublishLicenseRenewed publishes a single-license renewal event
func (eb *EventBus) PublishLicenseRenewed(licenseID, key string, expiryDate *time.Time, finalAmount string) {
	data := map[string]interface{}{
		"license_id":   licenseID,
		"license_key":  key,
		"final_amount": finalAmount,
	}
	if expiryDate != nil {
		data["expiry_date"] = expiryDate.Format("2006-01-02")
	}
	eb.Publish(Event{
		Type: EventLicenseRenewed,
		Data: data,
	})
}

// PublishRenewalRunStarted publishes the start of a renewal batch
func (eb *EventBus) PublishRenewalRunStarted(runID string) {
	eb.Publish(Event{
		Type: EventRenewalRunStarted,
		Data: map[string]interface{}{
			"run_id": runID,
		},
	})
}

// PublishRenewalRunFinished publishes the outcome of a renewal batch
func (eb *EventBus) PublishRenewalRunFinished(runID string, candidates, succeeded, failed int) {
	eb.Publish(Event{
		Type: EventRenewalRunFinished,
		Data: map[string]interface{}{
			"run_id":     runID,
			"candidates": candidates,
			"succeeded":  succeeded,
			"failed":     failed,
		},
	})
}

// PublishTransactionCreated publishes a transaction created event
func (eb *EventBus) PublishTransactionCreated(transactionID, licenseID, txType, finalAmount, status string) {
	eb.Publish(Event{
		Type: EventTransactionCreated,
		Data: map[string]interface{}{
			"transaction_id": transactionID,
			"license_id":     licenseID,
			"type":           txType,
			"final_amount":   finalAmount,
			"status":         status,
		},
	})
}

// PublishDeviceRegistered publishes a device registered event
func (eb *EventBus) PublishDeviceRegistered(deviceID, licenseID, fingerprint string) {
	eb.Publish(Event{
		Type: EventDeviceRegistered,
		Data: map[string]interface{}{
			"device_id":   deviceID,
			"license_id":  licenseID,
			"fingerprint": fingerprint,
		},
	})
}

// PublishWalletCredited publishes a wallet credit event
func (eb *EventBus) PublishWalletCredited(companyID, amount, balance string) {
	eb.Publish(Event{
		Type: EventWalletCredited,
		Data: map[string]interface{}{
			"company_id": companyID,
			"amount":     amount,
			"balance":    balance,
		},
	})
}

// PublishError publishes an error event
func (eb *EventBus) PublishError(source, message string, err error) {
	data := map[string]interface{}{
		"source":  source,
		"message": message,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	eb.Publish(Event{
		Type: EventError,
		Data: data,
	})
}
