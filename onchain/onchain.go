package onchain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"crypto-research-service/metrics"
	"crypto-research-service/models"
)

// Monitor reads the chain head and gas price from an Ethereum JSON-RPC node
type Monitor struct {
	client  *ethclient.Client
	chainID *big.Int
}

// NewMonitor dials the RPC node and resolves its network id
func NewMonitor(rpcURL string) (*Monitor, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("error creating ethclient with the network url %s: %w", rpcURL, err)
	}

	chainID, err := client.NetworkID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("error getting network ID: %w", err)
	}

	return &Monitor{
		client:  client,
		chainID: chainID,
	}, nil
}

// GweiFromWei converts a wei amount to gwei
func GweiFromWei(src *big.Int) float64 {
	res, _ := decimal.NewFromBigInt(src, -9).Float64()
	return res
}

// Status fetches the current head block number and suggested gas price
func (m *Monitor) Status() (*models.NetworkStatus, error) {
	header, err := m.client.HeaderByNumber(context.Background(), nil)
	if err != nil {
		metrics.EthRPCRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error getting chain head: %w", err)
	}

	gasPrice, err := m.client.SuggestGasPrice(context.Background())
	if err != nil {
		metrics.EthRPCRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("error getting gas price: %w", err)
	}

	metrics.EthRPCRequestsTotal.WithLabelValues("success").Inc()
	return &models.NetworkStatus{
		ChainID:      m.chainID.Int64(),
		BlockNumber:  header.Number.Uint64(),
		GasPriceGwei: GweiFromWei(gasPrice),
		Timestamp:    time.Now().Format(time.RFC3339),
	}, nil
}

// Close releases the RPC connection
func (m *Monitor) Close() {
	m.client.Close()
}
