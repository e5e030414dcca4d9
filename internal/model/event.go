package model

// EventKind tags which component an Event is destined for.
type EventKind int

const (
	EventCache EventKind = iota
	EventStorage
	EventApplication
	EventPlacement
	EventTerminate
)

// Event is a (virtual-time, payload) pair. Exactly one of the payload
// fields is meaningful, selected by Kind; EventApplication carries the
// Access that finished, EventTerminate carries nothing.
type Event struct {
	Time        int64
	Kind        EventKind
	Cache       CacheMsg
	Storage     StorageMsg
	Application Access
	Placement   PlacementMsg
}

func CacheEvent(t int64, msg CacheMsg) Event {
	return Event{Time: t, Kind: EventCache, Cache: msg}
}

func StorageEvent(t int64, msg StorageMsg) Event {
	return Event{Time: t, Kind: EventStorage, Storage: msg}
}

func ApplicationEvent(t int64, a Access) Event {
	return Event{Time: t, Kind: EventApplication, Application: a}
}

func PlacementEvent(t int64, msg PlacementMsg) Event {
	return Event{Time: t, Kind: EventPlacement, Placement: msg}
}

func TerminateEvent(t int64) Event {
	return Event{Time: t, Kind: EventTerminate}
}
