package config

import (
	"time"

	"github.com/galois26/ais-ingester/internal/model"
)

var (
	irishSeaSouth = model.BoundingBox{{51.18, -2.25}, {53.415, -8.39}}
	irishSeaNorth = model.BoundingBox{{53.415, -2.25}, {55.65, -8.39}}
	irishSea      = model.BoundingBox{{51.18, -2.25}, {55.65, -8.39}}
	britishIsles  = model.BoundingBox{{50, 0}, {60, -10}}
)

// DefaultSessions is the deployment used when the config names none: the
// busy position feeds split across keys, the slower feeds over a wider box.
func DefaultSessions() []SessionSpec {
	const (
		fast = 6000 * time.Second
		slow = 8000 * time.Second
	)
	return []SessionSpec{
		{Name: "position-south", KeyIndex: 0, BoundingBox: irishSeaSouth, MessageType: model.PositionReport, Timeout: fast},
		{Name: "position-north", KeyIndex: 1, BoundingBox: irishSeaNorth, MessageType: model.PositionReport, Timeout: fast},
		{Name: "class-b-extended", KeyIndex: 2, BoundingBox: irishSea, MessageType: model.ExtendedClassBPositionReport, Timeout: fast},
		{Name: "long-range", KeyIndex: 3, BoundingBox: irishSea, MessageType: model.LongRangeAisBroadcastMessage, Timeout: fast},
		{Name: "ship-static", KeyIndex: 4, BoundingBox: britishIsles, MessageType: model.ShipStaticData, Timeout: slow},
		{Name: "static-report", KeyIndex: 5, BoundingBox: britishIsles, MessageType: model.StaticDataReport, Timeout: slow},
		{Name: "aids-to-navigation", KeyIndex: 6, BoundingBox: britishIsles, MessageType: model.AidsToNavigationReport, Timeout: slow},
		{Name: "base-station", KeyIndex: 7, BoundingBox: britishIsles, MessageType: model.BaseStationReport, Timeout: slow},
		{Name: "safety-broadcast", KeyIndex: 6, BoundingBox: britishIsles, MessageType: model.SafetyBroadcastMessage, Timeout: slow},
		{Name: "safety-addressed", KeyIndex: 7, BoundingBox: britishIsles, MessageType: model.AddressedSafetyMessage, Timeout: slow},
	}
}
