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

package main

import (
	"fixengine/fixnet"
	"fixengine/fixsession"
	"fixengine/fixstore"
)

// fixsessionHandle bundles a Session with the store and transport it owns,
// so each subcommand can close both without repeating the teardown order.
type fixsessionHandle struct {
	session   *fixsession.Session
	store     fixstore.MessageStore
	transport fixnet.Transport
}

func newSessionHandle(cfg fixsession.Config, store fixstore.MessageStore, transport fixnet.Transport) *fixsessionHandle {
	return &fixsessionHandle{
		session:   fixsession.NewSession(cfg, store, transport),
		store:     store,
		transport: transport,
	}
}

func (h *fixsessionHandle) close() {
	_ = h.session.Close()
}
