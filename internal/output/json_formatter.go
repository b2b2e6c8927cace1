package output

import (
	"encoding/json"

	"github.com/rpgo/projection-engine/internal/domain"
)

// JSONFormatter serializes the response. Decimals encode as JSON strings.
type JSONFormatter struct {
	Indent bool
}

func (j JSONFormatter) Name() string      { return "json" }
func (j JSONFormatter) Extension() string { return "json" }

func (j JSONFormatter) Format(resp *domain.SimulationResponse) ([]byte, error) {
	if j.Indent {
		return json.MarshalIndent(resp, "", "  ")
	}
	return json.Marshal(resp)
}
