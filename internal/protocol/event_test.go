package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Start(t *testing.T) {
	data, err := Encode(NewStart([]uint32{1, 2, 3}, 4.5))

	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"start","params":{"landscape":[1,2,3],"hours":4.5}}`, string(data))
}

func TestEncode_Progress(t *testing.T) {
	data, err := Encode(NewProgress(true, 0.25, []float64{1.5, 2.5}))

	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"progress","params":{"running":true,"time":0.25,"levels":[1.5,2.5]}}`, string(data))
}

func TestEncode_ProgressWithoutLevelsYieldsEmptyArray(t *testing.T) {
	data, err := Encode(NewProgress(false, 0, nil))

	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"progress","params":{"running":false,"time":0,"levels":[]}}`, string(data))
}

func TestEncode_EventsWithoutParamsOmitThem(t *testing.T) {
	for _, kind := range []Kind{KindStep, KindPause, KindResume, KindForward, KindForwardStep} {
		data, err := Encode(Event{Kind: kind})

		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"`+string(kind)+`"}`, string(data))
	}
}

func TestDecode_Start(t *testing.T) {
	event, err := Decode([]byte(`{"event":"start","params":{"landscape":[3,0,9],"hours":2}}`))

	require.NoError(t, err)
	assert.Equal(t, KindStart, event.Kind)
	require.NotNil(t, event.Start)
	assert.Equal(t, []uint32{3, 0, 9}, event.Start.Landscape)
	assert.InDelta(t, 2.0, event.Start.Hours, 1e-9)
}

func TestDecode_AcceptsNullParams(t *testing.T) {
	event, err := Decode([]byte(`{"event":"step","params":null}`))

	require.NoError(t, err)
	assert.Equal(t, KindStep, event.Kind)
}

func TestDecode_AcceptsMissingParams(t *testing.T) {
	event, err := Decode([]byte(`{"event":"pause"}`))

	require.NoError(t, err)
	assert.Equal(t, KindPause, event.Kind)
}

func TestDecode_Progress(t *testing.T) {
	event, err := Decode([]byte(`{"event":"progress","params":{"running":false,"time":1,"levels":[2.5,2.5]}}`))

	require.NoError(t, err)
	require.NotNil(t, event.Progress)
	assert.False(t, event.Progress.Running)
	assert.InDelta(t, 1.0, event.Progress.Time, 1e-9)
	assert.InDeltaSlice(t, []float64{2.5, 2.5}, event.Progress.Levels, 1e-9)
}

func TestDecode_UnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"event":"reset"}`))

	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecode_MalformedFrame(t *testing.T) {
	_, err := Decode([]byte(`{"event":`))

	assert.Error(t, err)
}

func TestDecode_StartWithoutParamsFails(t *testing.T) {
	_, err := Decode([]byte(`{"event":"start"}`))

	assert.Error(t, err)
}

func TestDecode_RejectsNegativeElevations(t *testing.T) {
	_, err := Decode([]byte(`{"event":"start","params":{"landscape":[1,-2],"hours":1}}`))

	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	events := []Event{
		NewStart([]uint32{5, 0, 7}, 1.5),
		NewProgress(true, 0.05, []float64{5.0, 0.1, 7.0}),
		{Kind: KindStep},
		{Kind: KindPause},
		{Kind: KindResume},
		{Kind: KindForward},
		{Kind: KindForwardStep},
	}

	for _, event := range events {
		data, err := Encode(event)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, event, decoded)
	}
}
