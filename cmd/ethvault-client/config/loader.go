package config

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/ethvault-client/internal/constants"
	"github.com/quantumauth-io/ethvault-client/internal/units"
	"github.com/quantumauth-io/ethvault-client/internal/vault"
)

// EnvPrefix scopes environment overrides, e.g. ETHVAULT_SIGNER_PRIVATEKEY.
const EnvPrefix = "ETHVAULT"

type EthereumSettings struct {
	RPCURL    string
	Network   string
	InfuraKey string
}

type VaultSettings struct {
	Address string
}

type SignerSettings struct {
	PrivateKey  string
	DelegateURL string
}

type TxSettings struct {
	GasPriceGwei   string
	ConfirmTimeout time.Duration
	GasLimits      map[string]uint64
}

type ServerSettings struct {
	Host           string
	Port           string
	AllowedOrigins []string
}

type Config struct {
	Ethereum EthereumSettings `mapstructure:"Ethereum"`
	Vault    VaultSettings    `mapstructure:"Vault"`
	Signer   SignerSettings   `mapstructure:"Signer"`
	Tx       TxSettings       `mapstructure:"Tx"`
	Server   ServerSettings   `mapstructure:"Server"`
}

func infuraRPC(network string, key string) string {
	return fmt.Sprintf("https://%s.infura.io/v3/%s", network, key)
}

func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	paths := []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
	return LoadFrom(paths)
}

// LoadFrom layers the embedded defaults, the first config.yaml found in paths and
// the environment, then normalizes the result.
func LoadFrom(paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize trims inputs, checksums the vault address and fills derived values.
func (c *Config) Normalize() error {
	c.Ethereum.RPCURL = strings.TrimSpace(c.Ethereum.RPCURL)
	c.Ethereum.Network = strings.ToLower(strings.TrimSpace(c.Ethereum.Network))
	c.Signer.PrivateKey = strings.TrimSpace(c.Signer.PrivateKey)
	c.Signer.DelegateURL = strings.TrimSpace(c.Signer.DelegateURL)

	if c.Ethereum.RPCURL == "" && strings.TrimSpace(c.Ethereum.InfuraKey) != "" {
		if err := c.InjectInfuraKey(c.Ethereum.InfuraKey); err != nil {
			return err
		}
	}

	if err := c.NormalizeVaultAddress(); err != nil {
		return err
	}
	if _, err := c.ActionGasLimits(); err != nil {
		return err
	}
	if _, err := c.GasPrice(); err != nil {
		return err
	}
	if c.Tx.ConfirmTimeout <= 0 {
		c.Tx.ConfirmTimeout = constants.DefaultConfirmTimeout
	}

	origins := make([]string, 0, len(c.Server.AllowedOrigins))
	for _, o := range c.Server.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.AllowedOrigins = origins
	return nil
}

func (c *Config) InjectInfuraKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("infura api key is empty")
	}
	if c.Ethereum.Network == "" {
		return errors.New("Ethereum.Network is required to build an infura url")
	}
	c.Ethereum.RPCURL = infuraRPC(c.Ethereum.Network, key)
	return nil
}

// NormalizeVaultAddress rewrites Vault.Address in checksummed form. Empty is allowed
// here; commands that need the vault reject it.
func (c *Config) NormalizeVaultAddress() error {
	raw := strings.TrimSpace(c.Vault.Address)
	if raw == "" {
		c.Vault.Address = ""
		return nil
	}
	if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
		raw = "0x" + raw
	}
	addr, err := vault.ParseAddress(raw)
	if err != nil {
		return errors.Wrapf(err, "Vault.Address %q", c.Vault.Address)
	}
	c.Vault.Address = addr.Hex()
	return nil
}

// ActionGasLimits resolves Tx.GasLimits to vault actions. Keys are matched
// case-insensitively; zero entries are dropped.
func (c *Config) ActionGasLimits() (map[vault.Action]uint64, error) {
	out := make(map[vault.Action]uint64, len(c.Tx.GasLimits))
	for name, gas := range c.Tx.GasLimits {
		action, err := vault.ParseAction(name)
		if err != nil {
			return nil, errors.Wrapf(err, "Tx.GasLimits")
		}
		if gas > 0 {
			out[action] = gas
		}
	}
	return out, nil
}

// GasPrice returns the configured fixed gas price in wei, or nil to ask the node.
func (c *Config) GasPrice() (*big.Int, error) {
	raw := strings.TrimSpace(c.Tx.GasPriceGwei)
	if raw == "" || raw == "0" {
		return nil, nil
	}
	wei, err := units.ParseGwei(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "Tx.GasPriceGwei %q", raw)
	}
	if wei.Sign() < 0 {
		return nil, errors.Newf("Tx.GasPriceGwei %q must not be negative", raw)
	}
	if wei.Sign() == 0 {
		return nil, nil
	}
	return wei, nil
}

// SessionOptions maps the config onto vault session options. Signers are attached
// by the caller.
func (c *Config) SessionOptions() (vault.Options, error) {
	if c.Ethereum.RPCURL == "" {
		return vault.Options{}, errors.New("no RPC endpoint configured: set Ethereum.RPCURL or Ethereum.InfuraKey")
	}
	if c.Vault.Address == "" {
		return vault.Options{}, errors.New("no vault configured: set Vault.Address")
	}
	gasLimits, err := c.ActionGasLimits()
	if err != nil {
		return vault.Options{}, err
	}
	gasPrice, err := c.GasPrice()
	if err != nil {
		return vault.Options{}, err
	}
	return vault.Options{
		Endpoint:     c.Ethereum.RPCURL,
		VaultAddress: c.Vault.Address,
		GasPrice:     gasPrice,
		GasLimits:    gasLimits,
	}, nil
}
