package feature

// Event is an indicator feature for a named span of time such as a holiday
type Event struct {
	Name string `json:"name"`
}

func NewEvent(name string) *Event {
	return &Event{name}
}

func (e Event) String() string {
	return "event_" + e.Name
}

func (e Event) Get(label string) (string, bool) {
	return lookup(e, label)
}

func (e Event) Type() FeatureType {
	return FeatureTypeEvent
}

func (e Event) Decode() map[string]string {
	return map[string]string{"name": e.Name}
}
