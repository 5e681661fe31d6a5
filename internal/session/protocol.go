package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/cvsift/cvsift/internal/screening"
)

// Wire event names, both directions.
const (
	eventStartProcessing    = "startProcessing"
	eventProcessingUpdate   = "processingUpdate"
	eventProcessingComplete = "processingComplete"
	eventProcessingError    = "processingError"
)

// envelope frames every outbound message.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// inbound defers payload decoding until the event name is known.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// updatePayload mirrors screening.Update. Status travels only on phase
// transitions.
type updatePayload struct {
	Status string `json:"status,omitempty"`
	Report string `json:"report"`
}

type completePayload struct {
	FinalData []screening.RowResult `json:"finalData"`
	Report    string                `json:"report"`
}

type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// startRequest is the startProcessing payload: the parsed batch rows plus
// the job description text.
type startRequest struct {
	CSVData []map[string]any `mapstructure:"csvData"`
	TxtData string           `mapstructure:"txtData"`
}

// decodeStartRequest decodes a client payload. JSON gets the frame into a
// loose map, mapstructure then picks out the envelope fields without
// forcing a shape on the row objects.
func decodeStartRequest(raw json.RawMessage) (*startRequest, error) {
	if len(raw) == 0 {
		return nil, errors.New("missing payload")
	}

	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if loose == nil {
		return nil, errors.New("missing payload")
	}

	req := &startRequest{}
	if err := mapstructure.Decode(loose, req); err != nil {
		return nil, fmt.Errorf("map payload fields: %w", err)
	}

	return req, nil
}

func (r *startRequest) records() []screening.Record {
	records := make([]screening.Record, 0, len(r.CSVData))
	for _, row := range r.CSVData {
		records = append(records, screening.Record(row))
	}
	return records
}
