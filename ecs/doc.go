// Package ecs provides ECS adapters for arbor's event system.
//
// The primary adapter is [NewDonburiSink], which bridges arbor pointer events
// (down, up, move, click, wheel and friends) into a [Donburi] world as typed
// events. Only events whose target node carries an EntityID are forwarded.
// Subscribe to [InteractionEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	scene.SetEventSink(sink)
//	ecs.Link(world, node)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
