/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fixserver

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fixengine/fixsession"
)

// FileConfig is the on-disk YAML shape for an acceptor's peer registry: a
// plain struct with yaml tags, unmarshalled over the defaults LoadFileConfig
// sets before decoding.
type FileConfig struct {
	Host                  string            `yaml:"host"`
	Port                  int               `yaml:"port"`
	StatusPort            int               `yaml:"status_port"`
	SupportedBeginStrings []string          `yaml:"supported_begin_strings"`
	LogonTimeout          time.Duration     `yaml:"logon_timeout"`
	DefaultStoreDSN       string            `yaml:"default_store_dsn"`
	Peers                 []PeerFileConfig  `yaml:"peers"`
}

// PeerFileConfig is one registered peer entry, mirroring fixsession.Config
// in its initiator-oriented form (SenderCompID is that peer's own id).
type PeerFileConfig struct {
	BeginString  string `yaml:"begin_string"`
	SenderCompID string `yaml:"sender_comp_id"`
	TargetCompID string `yaml:"target_comp_id"`
	Qualifier    string `yaml:"qualifier"`
	Account      string `yaml:"account"`
	HeartBtInt   int    `yaml:"heart_bt_int"`
	ResetOnLogon bool   `yaml:"reset_on_logon"`
	StoreDSN     string `yaml:"store_dsn"`
}

func (p PeerFileConfig) toSessionConfig() fixsession.Config {
	return fixsession.Config{
		BeginString:  p.BeginString,
		SenderCompID: p.SenderCompID,
		TargetCompID: p.TargetCompID,
		Qualifier:    p.Qualifier,
		Account:      p.Account,
		HeartBtInt:   p.HeartBtInt,
		ResetOnLogon: p.ResetOnLogon,
		StoreDSN:     p.StoreDSN,
	}
}

// LoadFileConfig reads and parses path into a FileConfig, defaulting
// SupportedBeginStrings to {"FIX.4.2"} and LogonTimeout to 1 second when
// the file omits them.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &FileConfig{
		SupportedBeginStrings: []string{"FIX.4.2"},
		LogonTimeout:          1 * time.Second,
		DefaultStoreDSN:       "inmemory://",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ServerConfig converts the parsed file form into the ServerConfig Server
// is constructed with.
func (c *FileConfig) ServerConfig() ServerConfig {
	peers := make([]fixsession.Config, 0, len(c.Peers))
	for _, p := range c.Peers {
		peers = append(peers, p.toSessionConfig())
	}
	return ServerConfig{
		Host:                  c.Host,
		Port:                  c.Port,
		SupportedBeginStrings: c.SupportedBeginStrings,
		Peers:                 peers,
		LogonTimeout:          c.LogonTimeout,
		DefaultStoreDSN:       c.DefaultStoreDSN,
	}
}
