package events

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenSupplyEvent(t *testing.T) {
	evt := TokenSupply{
		Token:  "esNUT",
		Total:  big.NewInt(5000),
		Delta:  big.NewInt(250),
		Reason: SupplyReasonUnlock,
	}.Event()
	require.NotNil(t, evt)
	require.Equal(t, TypeTokenSupply, evt.Type)
	require.Equal(t, "esNUT", evt.Attributes["token"])
	require.Equal(t, "5000", evt.Attributes["total"])
	require.Equal(t, "250", evt.Attributes["delta"])
	require.Equal(t, SupplyReasonUnlock, evt.Attributes["reason"])
}

func TestTokenSupplyDefaultsUnknownToken(t *testing.T) {
	evt := TokenSupply{Total: nil}.Event()
	require.Equal(t, "UNKNOWN", evt.Attributes["token"])
	require.Equal(t, "0", evt.Attributes["total"])
	_, hasDelta := evt.Attributes["delta"]
	require.False(t, hasDelta)
}

func TestRecorderFlushAndReset(t *testing.T) {
	rec := &Recorder{}
	rec.Emit(TokenSupply{Token: "NUT", Total: big.NewInt(1)})
	rec.Emit(nil)
	require.Len(t, rec.Events(), 1)
	require.Len(t, rec.Flatten(), 1)

	sink := &Recorder{}
	rec.FlushTo(sink)
	require.Empty(t, rec.Events())
	require.Len(t, sink.Events(), 1)

	sink.Reset()
	require.Empty(t, sink.Events())
}
