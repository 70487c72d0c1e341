package model

import (
	"fmt"
	"time"
)

// MessageType names an AIS message category as used by the feed, both as the
// subscription filter and as the key of the payload inside an inbound frame.
type MessageType string

const (
	PositionReport               MessageType = "PositionReport"
	StandardClassBPositionReport MessageType = "StandardClassBPositionReport"
	ExtendedClassBPositionReport MessageType = "ExtendedClassBPositionReport"
	LongRangeAisBroadcastMessage MessageType = "LongRangeAisBroadcastMessage"
	ShipStaticData               MessageType = "ShipStaticData"
	StaticDataReport             MessageType = "StaticDataReport"
	AidsToNavigationReport       MessageType = "AidsToNavigationReport"
	BaseStationReport            MessageType = "BaseStationReport"
	SafetyBroadcastMessage       MessageType = "SafetyBroadcastMessage"
	AddressedSafetyMessage       MessageType = "AddressedSafetyMessage"
)

var knownTypes = []MessageType{
	PositionReport,
	StandardClassBPositionReport,
	ExtendedClassBPositionReport,
	LongRangeAisBroadcastMessage,
	ShipStaticData,
	StaticDataReport,
	AidsToNavigationReport,
	BaseStationReport,
	SafetyBroadcastMessage,
	AddressedSafetyMessage,
}

// KnownMessageTypes returns the message types the ingester can subscribe to.
func KnownMessageTypes() []MessageType {
	out := make([]MessageType, len(knownTypes))
	copy(out, knownTypes)
	return out
}

func (t MessageType) Known() bool {
	for _, k := range knownTypes {
		if k == t {
			return true
		}
	}
	return false
}

func (t MessageType) String() string { return string(t) }

// Envelope is one inbound frame from the feed. Message holds a single entry keyed
// by the message type; Error is only set when the feed rejects the subscription.
type Envelope struct {
	MessageType MessageType               `json:"MessageType"`
	Message     map[MessageType]RawRecord `json:"Message"`
	MetaData    map[string]any            `json:"MetaData"`
	Error       string                    `json:"error"`
}

// RawRecord is the untyped per-type payload, decoded with json.Number for numbers.
type RawRecord map[string]any

// Valid reports whether the payload carries Valid=true.
func (r RawRecord) Valid() bool {
	v, ok := r["Valid"].(bool)
	return ok && v
}

// Row is a formatted record ready for CSV output. Every row carries UTCTime.
type Row map[string]any

// CaptureField is the row field holding the wall-clock capture time.
const CaptureField = "UTCTime"

// Batch is the ordered set of rows one session accumulates before flushing.
type Batch []Row

// Point is a [lat, lon] pair.
type Point [2]float64

// BoundingBox is a rectangle given by two opposite corners.
type BoundingBox [2]Point

func (b BoundingBox) Validate() error {
	for _, p := range b {
		if p[0] < -90 || p[0] > 90 {
			return fmt.Errorf("latitude %g out of range", p[0])
		}
		if p[1] < -180 || p[1] > 180 {
			return fmt.Errorf("longitude %g out of range", p[1])
		}
	}
	return nil
}

// SessionConfig is the immutable input of one stream session.
type SessionConfig struct {
	Name        string
	APIKey      string
	BoundingBox BoundingBox
	MessageType MessageType
	Timeout     time.Duration
}

// Subscription is the single frame sent after connecting.
type Subscription struct {
	APIKey             string        `json:"APIKey"`
	BoundingBoxes      []BoundingBox `json:"BoundingBoxes"`
	FilterMessageTypes []MessageType `json:"FilterMessageTypes"`
}

// Subscription builds the subscribe frame for this session.
func (c SessionConfig) Subscription() Subscription {
	return Subscription{
		APIKey:             c.APIKey,
		BoundingBoxes:      []BoundingBox{c.BoundingBox},
		FilterMessageTypes: []MessageType{c.MessageType},
	}
}
