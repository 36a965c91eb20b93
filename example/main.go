// Example usage of the Seaswap SDK Go.
package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	seaswap "github.com/seaswaplabs/seaswap-sdk-go"
	"github.com/seaswaplabs/seaswap-sdk-go/schema"
)

// exampleConfig is loaded from config.toml, with SEASWAP_-prefixed
// environment variables overriding individual keys.
type exampleConfig struct {
	ChainID    int64  `mapstructure:"chain_id"`
	RPCURL     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"`
	APIHost    string `mapstructure:"api_host"`
	APIKey     string `mapstructure:"api_key"`
	StreamURL  string `mapstructure:"stream_url"`
}

func loadConfig(path string) (*exampleConfig, error) {
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SEASWAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var c exampleConfig
	if err := viper.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func main() {
	cfg, err := loadConfig("config.toml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	client, err := seaswap.NewClient(seaswap.ClientConfig{
		ChainID:    seaswap.ChainID(cfg.ChainID),
		RPCURL:     cfg.RPCURL,
		PrivateKey: cfg.PrivateKey,
		Host:       cfg.APIHost,
		APIKey:     cfg.APIKey,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	fmt.Printf("Signing account: %s\n", client.Account().Hex())

	// Example: list an ERC721 for a fixed price of 0.5 in the native coin,
	// expiring in a day.
	asset := seaswap.Asset{
		TokenAddress: "0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB",
		TokenID:      big.NewInt(42),
		SchemaName:   schema.ERC721,
	}

	signed, err := client.CreateSellOrder(ctx, &seaswap.SellOrderOptions{
		Asset:          asset,
		AccountAddress: client.Account(),
		StartAmount:    decimal.NewFromFloat(0.5),
		ExpirationTime: time.Now().Add(24 * time.Hour).Unix(),
	})
	if err != nil {
		log.Fatalf("Failed to create sell order: %v", err)
	}
	fmt.Printf("Listed order %s\n", signed.Hash.Hex())

	// Example: watch marketplace activity on the same collection.
	stream := seaswap.NewStream(seaswap.StreamConfig{
		Endpoint: cfg.StreamURL,
		APIKey:   cfg.APIKey,
		OnEvent: func(event *seaswap.OrderEvent) {
			fmt.Printf("Event %s: order %s on %s token %s\n",
				event.Channel, event.OrderHash, event.Collection, event.TokenID)
		},
		OnError: func(err error) {
			logger.Warn("stream error", zap.Error(err))
		},
	})
	if err := stream.Connect(ctx); err != nil {
		log.Printf("Failed to connect order stream: %v", err)
	} else {
		defer stream.Disconnect()
		if err := stream.SubscribeMatches(asset.TokenAddress); err != nil {
			log.Printf("Failed to subscribe: %v", err)
		}
	}

	// Example: read the listing's effective price back from the exchange.
	price, err := client.CurrentPrice(ctx, signed.Order)
	if err != nil {
		log.Printf("Failed to read current price: %v", err)
	} else {
		fmt.Printf("Current price: %s base units\n", price.String())
	}

	// Example: fulfill someone else's listing fetched from the order book.
	// A real taker would look the order up via client APIs; here the listing
	// above is matched against for demonstration.
	txHash, err := client.FulfillOrder(ctx, signed)
	if err != nil {
		log.Printf("Failed to fulfill order: %v", err)
	} else {
		fmt.Printf("Settled in transaction %s\n", txHash.Hex())
	}
}
