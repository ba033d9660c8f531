package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/accolade/core"
	"github.com/layer-3/accolade/ports"
	"github.com/shopspring/decimal"
)

const (
	// DefaultGasLimit is the gas limit for mint transactions
	DefaultGasLimit = 300000

	// DefaultGasPriceGwei is the legacy gas price for mint transactions
	DefaultGasPriceGwei = "2"
)

// Backend is the subset of ethclient.Client the chain client needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Config configures a Client.
type Config struct {
	ContractAddress common.Address
	PrivateKey      *ecdsa.PrivateKey

	// ChainID is fetched from the backend when nil
	ChainID  *big.Int
	GasLimit uint64
	GasPrice *big.Int
}

// Client implements ports.ChainClient against an EVM node.
type Client struct {
	backend  Backend
	abi      abi.ABI
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	gasLimit uint64
	gasPrice *big.Int

	mu      sync.Mutex
	chainID *big.Int
}

var _ ports.ChainClient = (*Client)(nil)

// NewClient creates a new chain client
func NewClient(backend Backend, cfg Config) (*Client, error) {
	if backend == nil {
		return nil, errors.New("chain backend is required")
	}
	if cfg.PrivateKey == nil {
		return nil, errors.New("issuer private key is required")
	}
	if cfg.ContractAddress == (common.Address{}) {
		return nil, core.ErrInvalidAddress
	}

	parsed, err := abi.JSON(strings.NewReader(BadgeContractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}
	gasPrice := cfg.GasPrice
	if gasPrice == nil {
		gasPrice, _ = GweiToWei(DefaultGasPriceGwei)
	}

	return &Client{
		backend:  backend,
		abi:      parsed,
		contract: cfg.ContractAddress,
		key:      cfg.PrivateKey,
		from:     crypto.PubkeyToAddress(cfg.PrivateKey.PublicKey),
		gasLimit: gasLimit,
		gasPrice: gasPrice,
		chainID:  cfg.ChainID,
	}, nil
}

// From returns the issuing account address
func (c *Client) From() common.Address {
	return c.from
}

// Nonce returns the next pending nonce of the issuing account
func (c *Client) Nonce(ctx context.Context) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return 0, fmt.Errorf("get nonce for %s: %w", c.from.Hex(), err)
	}
	return nonce, nil
}

// BuildAndSign packs call into a legacy transaction to the contract and signs it
func (c *Client) BuildAndSign(ctx context.Context, call core.ContractCall, nonce uint64) ([]byte, error) {
	data, err := c.abi.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Method, err)
	}

	chainID, err := c.chainIDFor(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Value:    big.NewInt(0),
		Gas:      c.gasLimit,
		GasPrice: c.gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	return raw, nil
}

// Submit broadcasts a signed transaction; it does not wait for inclusion
func (c *Client) Submit(ctx context.Context, signedTx []byte) (string, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(signedTx); err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, tx); err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return tx.Hash().Hex(), nil
}

// Call runs a read-only contract method and returns its unpacked outputs
func (c *Client) Call(ctx context.Context, call core.ContractCall) ([]any, error) {
	data, err := c.abi.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", call.Method, err)
	}

	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &c.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", call.Method, err)
	}

	values, err := c.abi.Unpack(call.Method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", call.Method, err)
	}
	return values, nil
}

// Connected reports whether the node answers
func (c *Client) Connected(ctx context.Context) bool {
	_, err := c.backend.ChainID(ctx)
	return err == nil
}

func (c *Client) chainIDFor(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.chainID != nil {
		return c.chainID, nil
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	c.chainID = id
	return id, nil
}

// ParsePrivateKey decodes a hex private key with or without 0x prefix
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// GweiToWei converts a decimal gwei amount such as "2" or "1.5" to wei
func GweiToWei(gwei string) (*big.Int, error) {
	d, err := decimal.NewFromString(gwei)
	if err != nil {
		return nil, fmt.Errorf("parse gas price %q: %w", gwei, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("gas price %q is negative", gwei)
	}
	return d.Shift(9).BigInt(), nil
}
