package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/safetradehq/safetrade-backend/pkg/enums"
)

type decoderFunc func(payload json.RawMessage) (interface{}, error)

// DecoderRegistry lets consumers decode envelope payloads by event type and
// schema version. Producers bump the envelope version when a payload shape
// changes; consumers keep decoders for every version still in flight.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	decoders map[enums.OutboxEventType]map[int]decoderFunc
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{decoders: make(map[enums.OutboxEventType]map[int]decoderFunc)}
}

// Register stores the decoder for one event type and version, replacing any
// previous registration.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder decoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	byVersion, ok := r.decoders[eventType]
	if !ok {
		byVersion = make(map[int]decoderFunc)
		r.decoders[eventType] = byVersion
	}
	byVersion[version] = decoder
}

// Decode runs the registered decoder for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	decoder, ok := r.decoders[eventType][version]
	r.mtx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
	}
	return decoder(payload)
}
