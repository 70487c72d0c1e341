// Package schema maps AIS message types to the CSV output group they are
// written to and the ordered column list of that group.
package schema

import (
	"errors"
	"fmt"

	"github.com/galois26/ais-ingester/internal/model"
)

// ErrUnknownMessageType is returned for message types without a registry entry.
var ErrUnknownMessageType = errors.New("unknown message type")

// Group identifies an output file. The name is the group's representative
// message type and doubles as the CSV file stem.
type Group string

const (
	GroupPositionReport         Group = "PositionReport"
	GroupShipStaticData         Group = "ShipStaticData"
	GroupAidsToNavigationReport Group = "AidsToNavigationReport"
)

// Schema is the output group and column order for one message type.
type Schema struct {
	Group  Group
	Fields []string
}

var fields = map[Group][]string{
	GroupPositionReport: {
		"UserID", "NavigationalStatus", "RateOfTurn", "Sog", "PositionAccuracy",
		"Longitude", "Latitude", "Cog", "TrueHeading", "Source", "Timestamp",
		model.CaptureField,
	},
	GroupShipStaticData: {
		"UserID", "ImoNumber", "Name", "CallSign", "Type", "Draught",
		"DimensionA", "DimensionB", "DimensionC", "DimensionD",
		"EtaMonth", "EtaDay", "EtaHour", "EtaMinute", "Destination", "FixType",
		model.CaptureField,
	},
	GroupAidsToNavigationReport: {
		"UserID", "Name", "NameExtension", "Type", "PositionAccuracy",
		"OffPosition", "VirtualAtoN", "Longitude", "Latitude",
		"DimensionA", "DimensionB", "DimensionC", "DimensionD",
		model.CaptureField,
	},
}

var groups = map[model.MessageType]Group{
	model.PositionReport:               GroupPositionReport,
	model.StandardClassBPositionReport: GroupPositionReport,
	model.ExtendedClassBPositionReport: GroupPositionReport,
	model.LongRangeAisBroadcastMessage: GroupPositionReport,
	model.ShipStaticData:               GroupShipStaticData,
	model.StaticDataReport:             GroupShipStaticData,
	model.AidsToNavigationReport:       GroupAidsToNavigationReport,
	model.BaseStationReport:            GroupAidsToNavigationReport,
	model.SafetyBroadcastMessage:       GroupAidsToNavigationReport,
	model.AddressedSafetyMessage:       GroupAidsToNavigationReport,
}

// Lookup returns the schema a message type is written with.
func Lookup(t model.MessageType) (Schema, error) {
	g, ok := groups[t]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, string(t))
	}
	return Schema{Group: g, Fields: ForGroup(g)}, nil
}

// ForGroup returns a copy of the group's column list, or nil for unknown groups.
func ForGroup(g Group) []string {
	f, ok := fields[g]
	if !ok {
		return nil
	}
	out := make([]string, len(f))
	copy(out, f)
	return out
}

// Groups lists the output groups in a stable order.
func Groups() []Group {
	return []Group{GroupPositionReport, GroupShipStaticData, GroupAidsToNavigationReport}
}
