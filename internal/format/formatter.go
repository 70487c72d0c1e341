// Package format reshapes AIS payloads into the flat rows of the three output
// groups. Each message type has its own pure formatting function; the values
// used for fields a type does not carry are the protocol's "not available"
// sentinels and are written literally.
package format

import (
	"errors"
	"fmt"
	"time"

	"github.com/galois26/ais-ingester/internal/model"
	"github.com/galois26/ais-ingester/internal/schema"
)

var (
	// ErrSchemaMismatch means the payload lacks a field its type requires.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnknownMessageType is the registry error, re-exported for callers of Format.
	ErrUnknownMessageType = schema.ErrUnknownMessageType
)

// Sentinels.
const (
	NavStatusNotDefined = 16
	RateOfTurnNA        = 128
	TrueHeadingNA       = 511
	LongRangeTimestamp  = 60
	EtaHourNA           = 24
	EtaMinuteNA         = 60
	DestinationBlank    = "@@@@@@@@@@@@@@@@@@@@"
	LongitudeNA         = 181
	LatitudeNA          = 91
	FlagFalse           = "FALSE"

	BaseStationName     = "Station"
	BaseStationType     = 34
	SafetyName          = "Safety"
	SafetyBroadcastType = 35
	SafetyAddressedType = 36
)

// Source values disambiguate rows in the position-track group.
const (
	SourcePositionReport = iota
	SourceExtendedClassB
	SourceLongRange
	SourceStandardClassB
)

type formatFunc func(rec model.RawRecord) (model.Row, error)

var formatters = map[model.MessageType]formatFunc{
	model.PositionReport:               positionReport,
	model.ExtendedClassBPositionReport: extendedClassB,
	model.LongRangeAisBroadcastMessage: longRange,
	model.StandardClassBPositionReport: standardClassB,
	model.ShipStaticData:               shipStaticData,
	model.StaticDataReport:             staticDataReport,
	model.AidsToNavigationReport:       aidsToNavigation,
	model.BaseStationReport:            baseStation,
	model.SafetyBroadcastMessage:       safetyMessage(SafetyBroadcastType),
	model.AddressedSafetyMessage:       safetyMessage(SafetyAddressedType),
}

// Format converts the payload of a message of type t into a row stamped with now.
func Format(rec model.RawRecord, t model.MessageType, now time.Time) (model.Row, error) {
	fn, ok := formatters[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, string(t))
	}
	row, err := fn(rec)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", t, err)
	}
	row[model.CaptureField] = now.UTC()
	return row, nil
}

// Formatter binds Format to a clock. The zero value uses time.Now.
type Formatter struct {
	Now func() time.Time
}

func (f *Formatter) Format(rec model.RawRecord, t model.MessageType) (model.Row, error) {
	now := time.Now
	if f != nil && f.Now != nil {
		now = f.Now
	}
	return Format(rec, t, now())
}

func positionReport(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 12)
	p.same("UserID", "NavigationalStatus", "RateOfTurn", "Sog", "PositionAccuracy",
		"Longitude", "Latitude", "Cog", "TrueHeading", "Timestamp")
	p.set("Source", SourcePositionReport)
	return p.result()
}

func extendedClassB(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 12)
	p.same("UserID", "Sog", "PositionAccuracy", "Longitude", "Latitude", "Cog", "TrueHeading", "Timestamp")
	p.set("NavigationalStatus", NavStatusNotDefined)
	p.set("RateOfTurn", RateOfTurnNA)
	p.set("Source", SourceExtendedClassB)
	return p.result()
}

func longRange(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 12)
	p.same("UserID", "NavigationalStatus", "Sog", "PositionAccuracy", "Longitude", "Latitude", "Cog")
	p.set("RateOfTurn", RateOfTurnNA)
	p.set("TrueHeading", TrueHeadingNA)
	p.set("Source", SourceLongRange)
	p.set("Timestamp", LongRangeTimestamp)
	return p.result()
}

func standardClassB(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 12)
	p.same("UserID", "Sog", "PositionAccuracy", "Longitude", "Latitude", "Cog", "TrueHeading", "Timestamp")
	p.set("NavigationalStatus", NavStatusNotDefined)
	p.set("RateOfTurn", RateOfTurnNA)
	p.set("Source", SourceStandardClassB)
	return p.result()
}

func shipStaticData(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 17)
	p.same("UserID", "ImoNumber", "Name", "CallSign", "Type", "Destination", "FixType")
	p.copy("Draught", "MaximumStaticDraught")
	p.dimensions("")
	p.copy("EtaMonth", "Eta.Month")
	p.copy("EtaDay", "Eta.Day")
	p.copy("EtaHour", "Eta.Hour")
	p.copy("EtaMinute", "Eta.Minute")
	return p.result()
}

// staticDataReport reads a type 24 report; part A carries the name and part B
// the rest, and the feed delivers both sub-objects on every message.
func staticDataReport(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 17)
	p.same("UserID")
	p.copy("Name", "ReportA.Name")
	p.copy("CallSign", "ReportB.CallSign")
	p.copy("Type", "ReportB.ShipType")
	p.copy("FixType", "ReportB.FixType")
	p.dimensions("ReportB.")
	p.set("ImoNumber", 0)
	p.set("Draught", 0)
	p.set("EtaMonth", 0)
	p.set("EtaDay", 0)
	p.set("EtaHour", EtaHourNA)
	p.set("EtaMinute", EtaMinuteNA)
	p.set("Destination", DestinationBlank)
	return p.result()
}

func aidsToNavigation(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 14)
	p.same("UserID", "Name", "NameExtension", "Type", "PositionAccuracy",
		"OffPosition", "VirtualAtoN", "Longitude", "Latitude")
	p.dimensions("")
	return p.result()
}

func baseStation(rec model.RawRecord) (model.Row, error) {
	p := newPicker(rec, 14)
	p.same("UserID", "PositionAccuracy", "Longitude", "Latitude")
	p.set("Name", BaseStationName)
	p.set("NameExtension", "")
	p.set("Type", BaseStationType)
	p.set("OffPosition", FlagFalse)
	p.set("VirtualAtoN", FlagFalse)
	p.zeroDimensions()
	return p.result()
}

// safetyMessage formats broadcast and addressed safety text. They carry no
// position, so the row uses the unavailable longitude/latitude values.
func safetyMessage(typeCode int) formatFunc {
	return func(rec model.RawRecord) (model.Row, error) {
		p := newPicker(rec, 14)
		p.same("UserID")
		p.copy("NameExtension", "Text")
		p.set("Name", SafetyName)
		p.set("Type", typeCode)
		p.set("PositionAccuracy", 0)
		p.set("OffPosition", FlagFalse)
		p.set("VirtualAtoN", FlagFalse)
		p.set("Longitude", LongitudeNA)
		p.set("Latitude", LatitudeNA)
		p.zeroDimensions()
		return p.result()
	}
}
