package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galois26/ais-ingester/internal/model"
)

func TestLookupKnownTypes(t *testing.T) {
	want := map[model.MessageType]Group{
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
	for _, mt := range model.KnownMessageTypes() {
		s, err := Lookup(mt)
		require.NoError(t, err, mt)
		assert.Equal(t, want[mt], s.Group, mt)
		assert.Equal(t, ForGroup(s.Group), s.Fields)
		assert.Equal(t, model.CaptureField, s.Fields[len(s.Fields)-1])
	}
}

func TestLookupUnknownType(t *testing.T) {
	_, err := Lookup("UnknownMessage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMessageType))
}

func TestGroupsAndFieldCounts(t *testing.T) {
	assert.Equal(t, []Group{GroupPositionReport, GroupShipStaticData, GroupAidsToNavigationReport}, Groups())
	assert.Len(t, ForGroup(GroupPositionReport), 12)
	assert.Len(t, ForGroup(GroupShipStaticData), 17)
	assert.Len(t, ForGroup(GroupAidsToNavigationReport), 14)
	assert.Nil(t, ForGroup("Nope"))
}

func TestForGroupReturnsCopy(t *testing.T) {
	f := ForGroup(GroupPositionReport)
	f[0] = "changed"
	assert.Equal(t, "UserID", ForGroup(GroupPositionReport)[0])
}
