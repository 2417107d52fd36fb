package gateway

import (
	"net/http"

	"github.com/invopop/jsonschema"
)

// ProtocolSchema describes every frame exchanged over the websocket.
type ProtocolSchema struct {
	Inbound  *jsonschema.Schema            `json:"inbound"`
	Outbound map[string]*jsonschema.Schema `json:"outbound"`
}

func NewProtocolSchema() ProtocolSchema {
	r := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	return ProtocolSchema{
		Inbound: r.Reflect(&InboundFrame{}),
		Outbound: map[string]*jsonschema.Schema{
			FrameTypeAIResponse: r.Reflect(&ResponseFrame{}),
			FrameTypeError:      r.Reflect(&ErrorFrame{}),
		},
	}
}

func schemaHandler() http.HandlerFunc {
	schema := NewProtocolSchema()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, schema)
	}
}
