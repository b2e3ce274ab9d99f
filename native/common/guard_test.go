package common

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(name string) (bool, error) {
	if name == "broken" {
		return false, errors.New("boom")
	}
	return p[name], nil
}

func TestGuard(t *testing.T) {
	view := pauseMap{"NUT": true}
	require.ErrorIs(t, Guard(view, "NUT"), ErrModulePaused)
	require.NoError(t, Guard(view, "esNUT"))
	require.NoError(t, Guard(nil, "NUT"))
	require.EqualError(t, Guard(view, "broken"), "boom")
}

func TestModuleAddressDeterministic(t *testing.T) {
	require.Equal(t, ModuleAddress("vesting"), ModuleAddress("vesting"))
	require.NotEqual(t, ModuleAddress("vesting"), ModuleAddress("schedule"))
}

func TestCloneBigInt(t *testing.T) {
	src := big.NewInt(7)
	clone := CloneBigInt(src)
	clone.Add(clone, big.NewInt(1))
	require.Equal(t, int64(7), src.Int64())
	require.Zero(t, CloneBigInt(nil).Sign())
}
