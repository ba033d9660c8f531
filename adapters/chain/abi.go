package chain

// BadgeContractABI covers the badge contract methods this service calls.
const BadgeContractABI = `[
	{"type":"function","name":"mintBadge","stateMutability":"nonpayable",
	 "inputs":[{"name":"recipient","type":"address"},{"name":"badgeType","type":"string"},{"name":"tokenURI","type":"string"}],
	 "outputs":[]},
	{"type":"function","name":"canMintBadge","stateMutability":"view",
	 "inputs":[{"name":"badgeType","type":"string"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"getMintedCount","stateMutability":"view",
	 "inputs":[{"name":"badgeType","type":"string"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"badgeTypes","stateMutability":"view",
	 "inputs":[{"name":"","type":"string"}],
	 "outputs":[{"name":"name","type":"string"},{"name":"maxSupply","type":"uint256"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view",
	 "inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"tokenURI","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"string"}]}
]`
