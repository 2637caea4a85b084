package pipeline

// Event is one machine-readable record of a pipeline step. Events never feed
// back into generation.
type Event struct {
	Type     string         `json:"type"`
	Region   string         `json:"region,omitempty"`
	Pass     string         `json:"pass,omitempty"`
	Item     string         `json:"item,omitempty"`
	Required bool           `json:"required,omitempty"`
	Message  string         `json:"message,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

const (
	EventRunStart         = "run_start"
	EventRunEnd           = "run_end"
	EventPassStart        = "pass_start"
	EventPassEnd          = "pass_end"
	EventPlacementFailure = "placement_failure"
	EventWarning          = "warning"
	EventSpawn            = "spawn"
)

// Pass names, in execution order.
const (
	PassLayout            = "layout"
	PassFoundation        = "foundation"
	PassRequiredPOIs      = "required_pois"
	PassOptionalPOIs      = "optional_pois"
	PassTemplatePOIs      = "template_pois"
	PassSignatureBuilding = "signature_buildings"
	PassTemplateBuildings = "template_buildings"
	PassDecorations       = "decorations"
	PassConnectors        = "connectors"
	PassSpawns            = "spawns"
)

// EventSink receives pipeline events in emission order.
type EventSink interface {
	Emit(ev Event) error
}

// Sinks fans one event out to several sinks. Every sink sees every event; the
// first error is returned.
type Sinks []EventSink

func (s Sinks) Emit(ev Event) error {
	var first error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
