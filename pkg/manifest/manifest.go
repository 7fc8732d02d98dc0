// Package manifest reads the static deployment manifest that maps contract
// names to their on-chain addresses and ABIs. The manifest is read once at
// startup; the registry contract named by it anchors the chain session.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Manifest describes the deployed contracts the indexer watches
type Manifest struct {
	// Registry names the contract whose deployment block anchors the
	// chain session for every contract in the manifest.
	Registry  string      `yaml:"registry" default:"GrantRegistry"`
	Contracts []*Contract `yaml:"contracts"`
}

// Contract is one deployed contract entry
type Contract struct {
	Name    string   `yaml:"name"`
	Address string   `yaml:"address"`
	ABI     string   `yaml:"abi"`
	Events  []string `yaml:"events"`

	parsedABI abi.ABI
	address   common.Address
}

// Load reads and validates a manifest file
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates manifest bytes
func Parse(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := defaults.Set(m); err != nil {
		return nil, fmt.Errorf("failed to apply manifest defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if len(m.Contracts) == 0 {
		return nil, fmt.Errorf("manifest contains no contracts")
	}

	for _, c := range m.Contracts {
		if c.Name == "" {
			return nil, fmt.Errorf("manifest contract missing name")
		}
		if !common.IsHexAddress(c.Address) {
			return nil, fmt.Errorf("contract %s: invalid address %q", c.Name, c.Address)
		}
		c.address = common.HexToAddress(c.Address)

		parsed, err := abi.JSON(strings.NewReader(c.ABI))
		if err != nil {
			return nil, fmt.Errorf("contract %s: invalid ABI: %w", c.Name, err)
		}
		c.parsedABI = parsed

		for _, ev := range c.Events {
			if _, ok := parsed.Events[ev]; !ok {
				return nil, fmt.Errorf("contract %s: event %s not found in ABI", c.Name, ev)
			}
		}
	}

	if _, err := m.RegistryContract(); err != nil {
		return nil, err
	}

	return m, nil
}

// Contract returns the manifest entry with the given name
func (m *Manifest) Contract(name string) (*Contract, bool) {
	for _, c := range m.Contracts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// RegistryContract returns the session anchor contract
func (m *Manifest) RegistryContract() (*Contract, error) {
	c, ok := m.Contract(m.Registry)
	if !ok {
		return nil, fmt.Errorf("registry contract %q not found in manifest", m.Registry)
	}
	return c, nil
}

// Addr returns the parsed contract address
func (c *Contract) Addr() common.Address {
	return c.address
}

// ABIDefinition returns the parsed contract ABI
func (c *Contract) ABIDefinition() abi.ABI {
	return c.parsedABI
}
