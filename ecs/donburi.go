// Package ecs provides ECS adapters for arbor.
package ecs

import (
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/component"
	"github.com/yohamta/donburi/features/events"
)

// InteractionEventType is the Donburi event type for arbor interaction events.
// Subscribe to this in your ECS systems to receive pointer, click and wheel
// events for nodes linked to entities.
var InteractionEventType = events.NewEventType[arbor.InteractionEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Interaction events are published to InteractionEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) arbor.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event arbor.InteractionEvent) {
	InteractionEventType.Publish(s.world, event)
}

// Link creates a Donburi entity for n and stores its ID in n.EntityID so that
// events targeting n reach the world through a sink. A previous link on n is
// replaced.
func Link(world donburi.World, n *arbor.Node, components ...component.IComponentType) donburi.Entity {
	e := world.Create(components...)
	n.EntityID = uint32(e.Id())
	return e
}
