package models

// Capability names a pluggable backend reported by the health surface.
type Capability string

const (
	CapabilityOCR        Capability = "ocr"
	CapabilityEntities   Capability = "entities"
	CapabilitySummarizer Capability = "summarizer"
)

// CapabilityHealth reports whether one capability is loaded.
type CapabilityHealth struct {
	Available bool   `json:"available"`
	Backend   string `json:"backend"`
	Reason    string `json:"reason,omitempty"`
}

// Health is the pre-flight view of which stages will degrade.
type Health struct {
	Status       string                          `json:"status"`
	Capabilities map[Capability]CapabilityHealth `json:"capabilities"`
}

// NewHealth derives the overall status from per-capability availability.
func NewHealth(caps map[Capability]CapabilityHealth) Health {
	status := "healthy"
	for _, c := range caps {
		if !c.Available {
			status = "partial"
			break
		}
	}
	return Health{Status: status, Capabilities: caps}
}
