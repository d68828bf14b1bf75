/*
Package events provides an in-memory event broker for graphstore's
pub/sub messaging.

The events package implements a lightweight event bus for broadcasting
barrier results to interested subscribers. It supports fan-out delivery
to any number of subscribers over buffered channels, with non-blocking
publish: a slow or absent subscriber never stalls a barrier run.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			fmt.Printf("%s %s: %s\n", event.Timestamp, event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventNodeDeleted,
		Message: "sticky node relabeled, cascaded to its edges",
		Metadata: map[string]string{"node_id": id.String()},
	})

A caller wires a Broker to a Workspace by passing it to
workspace.SetEventBroker; every non-empty Barrier result is then
published as one Event per changed node, atom, and edge, including
changes the barrier itself produced while restoring invariants (a
sticky-label change cascading into its attached edges, a missing
reference pruning an atom or edge, a cycle-closing edge being dropped).

# Design

Publish is non-blocking and delivery is best-effort: full subscriber
buffers skip rather than block the broadcast loop. This package has no
persistence or replay; a subscriber that needs a durable log should
write events to its own store as they arrive.
*/
package events
