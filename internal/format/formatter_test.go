package format

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galois26/ais-ingester/internal/model"
	"github.com/galois26/ais-ingester/internal/schema"
	"github.com/galois26/ais-ingester/internal/testutil"
)

var fixedNow = time.Date(2024, 4, 3, 10, 5, 12, 0, time.FixedZone("BST", 3600))

func keys(r model.Row) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestFormatFieldSetMatchesRegistry(t *testing.T) {
	for _, mt := range model.KnownMessageTypes() {
		t.Run(string(mt), func(t *testing.T) {
			row, err := Format(testutil.Payload(mt), mt, fixedNow)
			require.NoError(t, err)

			s, err := schema.Lookup(mt)
			require.NoError(t, err)
			assert.Equal(t, sorted(s.Fields), keys(row))
		})
	}
}

func TestFormatStampsCaptureTimeInUTC(t *testing.T) {
	row, err := Format(testutil.Payload(model.PositionReport), model.PositionReport, fixedNow)
	require.NoError(t, err)

	ts, ok := row[model.CaptureField].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, ts.Location())
	assert.True(t, ts.Equal(fixedNow))
}

func TestFormatIgnoresWireTimestampForCaptureTime(t *testing.T) {
	rec := testutil.Payload(model.PositionReport)
	row, err := Format(rec, model.PositionReport, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, json.Number("31"), row["Timestamp"])
	assert.True(t, row[model.CaptureField].(time.Time).Equal(fixedNow))
}

func TestFormatSentinels(t *testing.T) {
	tests := []struct {
		mt   model.MessageType
		want map[string]any
	}{
		{model.PositionReport, map[string]any{
			"Source": SourcePositionReport, "RateOfTurn": json.Number("-12"), "TrueHeading": json.Number("307"),
		}},
		{model.ExtendedClassBPositionReport, map[string]any{
			"Source": SourceExtendedClassB, "NavigationalStatus": 16, "RateOfTurn": 128, "TrueHeading": json.Number("179"),
		}},
		{model.LongRangeAisBroadcastMessage, map[string]any{
			"Source": SourceLongRange, "RateOfTurn": 128, "TrueHeading": 511, "Timestamp": 60,
			"NavigationalStatus": json.Number("5"),
		}},
		{model.StandardClassBPositionReport, map[string]any{
			"Source": SourceStandardClassB, "NavigationalStatus": 16, "RateOfTurn": 128,
		}},
		{model.ShipStaticData, map[string]any{
			"Draught": json.Number("7.8"), "DimensionA": json.Number("120"), "EtaMonth": json.Number("3"),
			"EtaMinute": json.Number("30"), "Destination": "LIVERPOOL",
		}},
		{model.StaticDataReport, map[string]any{
			"ImoNumber": 0, "Draught": 0, "EtaMonth": 0, "EtaDay": 0, "EtaHour": 24, "EtaMinute": 60,
			"Destination": "@@@@@@@@@@@@@@@@@@@@", "Name": "LITTLE TERN", "CallSign": "2ABC3",
			"Type": json.Number("37"), "DimensionD": json.Number("2"),
		}},
		{model.AidsToNavigationReport, map[string]any{
			"Name": "NASH BUOY", "OffPosition": false, "VirtualAtoN": true, "Type": json.Number("14"),
		}},
		{model.BaseStationReport, map[string]any{
			"Name": "Station", "NameExtension": "", "Type": 34, "OffPosition": "FALSE", "VirtualAtoN": "FALSE",
			"DimensionA": 0, "DimensionD": 0,
		}},
		{model.SafetyBroadcastMessage, map[string]any{
			"Name": "Safety", "NameExtension": "GALE WARNING IRISH SEA", "Type": 35,
			"Longitude": 181, "Latitude": 91, "OffPosition": "FALSE",
		}},
		{model.AddressedSafetyMessage, map[string]any{
			"Name": "Safety", "NameExtension": "CHECK YOUR AIS", "Type": 36,
		}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mt), func(t *testing.T) {
			row, err := Format(testutil.Payload(tt.mt), tt.mt, fixedNow)
			require.NoError(t, err)
			for k, v := range tt.want {
				assert.Equal(t, v, row[k], k)
			}
		})
	}
}

func TestFormatShipStaticDataMissingDimension(t *testing.T) {
	rec := testutil.Payload(model.ShipStaticData)
	delete(rec, "Dimension")

	row, err := Format(rec, model.ShipStaticData, fixedNow)
	require.Error(t, err)
	assert.Nil(t, row)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Dimension.A")
}

func TestFormatNestedFieldNotAnObject(t *testing.T) {
	rec := testutil.Payload(model.StaticDataReport)
	rec["ReportB"] = "broken"

	_, err := Format(rec, model.StaticDataReport, fixedNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
}

func TestFormatMissingTopLevelField(t *testing.T) {
	for _, mt := range model.KnownMessageTypes() {
		t.Run(string(mt), func(t *testing.T) {
			rec := testutil.Payload(mt)
			delete(rec, "UserID")
			_, err := Format(rec, mt, fixedNow)
			assert.True(t, errors.Is(err, ErrSchemaMismatch))
		})
	}
}

func TestFormatNullValueIsPresent(t *testing.T) {
	rec := testutil.Payload(model.ShipStaticData)
	rec["Destination"] = nil

	row, err := Format(rec, model.ShipStaticData, fixedNow)
	require.NoError(t, err)
	assert.Nil(t, row["Destination"])
	assert.Contains(t, row, "Destination")
}

func TestFormatUnknownMessageType(t *testing.T) {
	_, err := Format(model.RawRecord{"UserID": 1}, "UnknownMessage", fixedNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMessageType))
	assert.True(t, errors.Is(err, schema.ErrUnknownMessageType))
}

func TestFormatterUsesClock(t *testing.T) {
	f := &Formatter{Now: func() time.Time { return fixedNow }}
	row, err := f.Format(testutil.Payload(model.BaseStationReport), model.BaseStationReport)
	require.NoError(t, err)
	assert.True(t, row[model.CaptureField].(time.Time).Equal(fixedNow))

	var nilFormatter *Formatter
	row, err = nilFormatter.Format(testutil.Payload(model.BaseStationReport), model.BaseStationReport)
	require.NoError(t, err)
	assert.False(t, row[model.CaptureField].(time.Time).IsZero())
}

func TestEveryKnownTypeHasFormatter(t *testing.T) {
	assert.Len(t, formatters, len(model.KnownMessageTypes()))
	for _, mt := range model.KnownMessageTypes() {
		assert.Contains(t, formatters, mt)
	}
}
