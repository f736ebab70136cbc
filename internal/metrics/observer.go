package metrics

import (
	"github.com/sharetube/embed/internal/bridge"
	"github.com/sharetube/embed/internal/broker"
)

// brokerObserver implements broker.Observer using the metrics declared in
// this package.
type brokerObserver struct{}

func NewBrokerObserver() broker.Observer {
	return &brokerObserver{}
}

func (o *brokerObserver) ObserveEnqueued(int) {
	BrokerPendingRegistrations.Inc()
}

func (o *brokerObserver) ObserveCancelled() {
	BrokerPendingRegistrations.Dec()
}

func (o *brokerObserver) ObserveServiced(immediate bool) {
	if immediate {
		BrokerRegistrationsTotal.WithLabelValues("immediate").Inc()
		return
	}

	BrokerPendingRegistrations.Dec()
	BrokerRegistrationsTotal.WithLabelValues("flushed").Inc()
}

func (o *brokerObserver) ObserveInserted() {
	BrokerScriptInsertionsTotal.Inc()
}

func (o *brokerObserver) ObserveReady(int) {
	BrokerReadyTotal.Inc()
}

type bridgeObserver struct{}

func NewBridgeObserver() bridge.Observer {
	return &bridgeObserver{}
}

func (o *bridgeObserver) ObserveMessage(direction, messageType string) {
	BridgeMessagesTotal.WithLabelValues(direction, messageType).Inc()
}
