// Package testutil holds AIS fixtures and a scriptable in-process feed for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/galois26/ais-ingester/internal/model"
)

// Payloads are minimal-but-complete per-type bodies as the feed delivers them.
var Payloads = map[model.MessageType]string{
	model.PositionReport: `{"Cog":308,"CommunicationState":81982,"Latitude":52.1234,"Longitude":-4.5678,"MessageID":1,
		"NavigationalStatus":0,"PositionAccuracy":true,"Raim":false,"RateOfTurn":-12,"RepeatIndicator":0,
		"Sog":10.4,"Spare":0,"SpecialManoeuvreIndicator":0,"Timestamp":31,"TrueHeading":307,"UserID":235009802,"Valid":true}`,
	model.StandardClassBPositionReport: `{"Cog":91.2,"Latitude":53.01,"Longitude":-3.2,"MessageID":18,"PositionAccuracy":false,
		"Sog":4.1,"Timestamp":12,"TrueHeading":511,"UserID":232001234,"Valid":true}`,
	model.ExtendedClassBPositionReport: `{"Cog":180,"Latitude":54.5,"Longitude":-5.1,"MessageID":19,"Name":"SEA BREEZE",
		"PositionAccuracy":true,"Sog":0.2,"Timestamp":40,"TrueHeading":179,"Type":37,"UserID":235112233,"Valid":true}`,
	model.LongRangeAisBroadcastMessage: `{"Cog":270,"GnssPositionStatus":0,"Latitude":55.2,"Longitude":-6.7,"MessageID":27,
		"NavigationalStatus":5,"PositionAccuracy":false,"Raim":false,"Sog":12,"UserID":636019825,"Valid":true}`,
	model.ShipStaticData: `{"AisVersion":2,"CallSign":"MFGH7","Destination":"LIVERPOOL","Dimension":{"A":120,"B":30,"C":12,"D":10},
		"Dte":false,"Eta":{"Day":14,"Hour":6,"Minute":30,"Month":3},"FixType":1,"ImoNumber":9321483,
		"MaximumStaticDraught":7.8,"MessageID":5,"Name":"ATLANTIC STAR","Type":70,"UserID":235087654,"Valid":true}`,
	model.StaticDataReport: `{"MessageID":24,"PartNumber":true,"ReportA":{"Name":"LITTLE TERN","Valid":true},
		"ReportB":{"CallSign":"2ABC3","Dimension":{"A":5,"B":4,"C":2,"D":2},"FixType":1,"ShipType":37,"Valid":true,
		"VendorIDName":"SRT"},"UserID":235099887,"Valid":true}`,
	model.AidsToNavigationReport: `{"AssignedMode":false,"Dimension":{"A":0,"B":0,"C":0,"D":0},"Fixtype":7,"Latitude":51.5,
		"Longitude":-3.1,"MessageID":21,"Name":"NASH BUOY","NameExtension":"","OffPosition":false,"PositionAccuracy":true,
		"Raim":false,"Timestamp":60,"Type":14,"UserID":992351234,"Valid":true,"VirtualAtoN":true}`,
	model.BaseStationReport: `{"FixType":7,"Latitude":53.3,"Longitude":-4.6,"MessageID":4,"PositionAccuracy":true,
		"UserID":2320712,"UtcDay":3,"UtcHour":10,"UtcMinute":5,"UtcMonth":4,"UtcSecond":12,"UtcYear":2024,"Valid":true}`,
	model.SafetyBroadcastMessage: `{"MessageID":14,"RepeatIndicator":0,"Spare":0,"Text":"GALE WARNING IRISH SEA",
		"UserID":2320713,"Valid":true}`,
	model.AddressedSafetyMessage: `{"DestinationID":235009802,"MessageID":12,"Retransmission":false,"Sequenceinteger":1,
		"Spare":0,"Text":"CHECK YOUR AIS","UserID":2320714,"Valid":true}`,
}

// Payload decodes the fixture for t the same way the session does.
func Payload(t model.MessageType) model.RawRecord {
	raw, ok := Payloads[t]
	if !ok {
		panic(fmt.Sprintf("testutil: no payload for %s", t))
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var rec model.RawRecord
	if err := dec.Decode(&rec); err != nil {
		panic(err)
	}
	return rec
}

// Frame wraps the fixture for t in a feed envelope with the given Valid flag.
func Frame(t model.MessageType, valid bool) []byte {
	rec := Payload(t)
	rec["Valid"] = valid
	b, err := json.Marshal(map[string]any{
		"MessageType": t,
		"MetaData": map[string]any{
			"MMSI":     rec["UserID"],
			"ShipName": "TEST",
			"time_utc": "2024-04-03 10:05:12.000000 +0000 UTC",
		},
		"Message": map[string]any{string(t): rec},
	})
	if err != nil {
		panic(err)
	}
	return b
}

// AuthErrorFrame is what the feed sends before closing on a bad API key.
func AuthErrorFrame() []byte {
	return []byte(`{"error": "Api Key Is Not Valid"}`)
}
