package chain

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/layer-3/accolade/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeContractABI_CoversMethods(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(BadgeContractABI))
	require.NoError(t, err)

	for _, name := range []string{
		core.MethodMintBadge,
		core.MethodCanMintBadge,
		core.MethodGetMintedCount,
		core.MethodBadgeTypes,
		core.MethodTotalSupply,
		core.MethodTokenURI,
	} {
		_, ok := parsed.Methods[name]
		assert.True(t, ok, name)
	}
}
