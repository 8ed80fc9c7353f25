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

// Package fixdsn parses the connection-string form of a session config:
// `fix[+VERSION]://SENDER:TARGET@HOST:PORT/?...`. It exists so an
// initiator can be configured with one string instead of a struct literal.
package fixdsn

import (
	"net/url"
	"strconv"
	"strings"

	"fixengine/fixerrors"
	"fixengine/fixsession"
)

const defaultVersion = "FIX.4.2"

// Parse decodes a connection string into a fixsession.Config. host, port,
// sender, and target must all be present in the DSN itself: Parse takes no
// override arguments and returns a ConfigError when any of them is missing.
// hb_int defaults to 30 and version defaults to "4.2" when the scheme
// carries no "+VERSION" suffix.
func Parse(dsn string) (fixsession.Config, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return fixsession.Config{}, &fixerrors.ConfigError{Reason: "malformed DSN: " + err.Error()}
	}

	version := defaultVersion
	if _, suffix, ok := strings.Cut(u.Scheme, "+"); ok {
		version, err = normalizeVersion(suffix)
		if err != nil {
			return fixsession.Config{}, err
		}
	} else if !strings.HasPrefix(u.Scheme, "fix") {
		return fixsession.Config{}, &fixerrors.ConfigError{Reason: "unsupported DSN scheme: " + u.Scheme}
	}

	if u.User == nil {
		return fixsession.Config{}, &fixerrors.ConfigError{Reason: "DSN must specify SENDER:TARGET"}
	}
	sender := u.User.Username()
	target, hasTarget := u.User.Password()
	if sender == "" || !hasTarget || target == "" {
		return fixsession.Config{}, &fixerrors.ConfigError{Reason: "DSN must specify SENDER:TARGET"}
	}

	host := u.Hostname()
	if host == "" {
		return fixsession.Config{}, &fixerrors.ConfigError{Reason: "DSN must specify HOST"}
	}
	port := 0
	if portStr := u.Port(); portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return fixsession.Config{}, &fixerrors.ConfigError{Reason: "invalid PORT: " + portStr}
		}
	} else {
		return fixsession.Config{}, &fixerrors.ConfigError{Reason: "DSN must specify PORT"}
	}

	query := u.Query()
	hbInt := 30
	if v := query.Get("hb_int"); v != "" {
		hbInt, err = strconv.Atoi(v)
		if err != nil {
			return fixsession.Config{}, &fixerrors.ConfigError{Reason: "invalid hb_int: " + v}
		}
	}

	cfg := fixsession.Config{
		Host:         host,
		Port:         port,
		BeginString:  version,
		SenderCompID: sender,
		TargetCompID: target,
		Qualifier:    query.Get("qualifier"),
		Account:      query.Get("account"),
		HeartBtInt:   hbInt,
	}
	if err := cfg.Validate(); err != nil {
		return fixsession.Config{}, err
	}
	return cfg, nil
}

// normalizeVersion maps a DSN's "+VERSION" suffix ("4.2", "4.4") to a full
// BeginString, rejecting anything the engine does not speak.
func normalizeVersion(suffix string) (string, error) {
	switch suffix {
	case "4.2":
		return "FIX.4.2", nil
	case "4.4":
		return "FIX.4.4", nil
	default:
		return "", &fixerrors.ConfigError{Reason: "unsupported FIX version: " + suffix}
	}
}

// StoreDSN splits a store DSN's scheme from its opaque remainder, the same
// split fixstore.Open performs — exposed here so callers assembling a
// fixsession.Config from a parsed fix:// DSN plus a separate store DSN
// string can validate the latter up front.
func StoreDSN(dsn string) (scheme, rest string, err error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "", "", &fixerrors.ConfigError{Reason: "malformed store DSN: " + dsn}
	}
	return scheme, rest, nil
}
