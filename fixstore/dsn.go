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

package fixstore

import (
	"fmt"
	"strings"
)

// Open builds a MessageStore from a store DSN and the session key the store
// should scope its rows/counters to. Supported schemes:
//
//	inmemory://                     -> MemoryStore (sessionKey ignored)
//	sqlite:///path/to/sessions.db   -> SQLiteStore, rows scoped by sessionKey
//
// An empty dsn defaults to inmemory://.
func Open(dsn, sessionKey string) (MessageStore, error) {
	if dsn == "" {
		dsn = "inmemory://"
	}
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("fixstore: malformed store DSN %q", dsn)
	}

	switch scheme {
	case "inmemory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := rest
		if path == "" {
			return nil, fmt.Errorf("fixstore: sqlite DSN %q missing a file path", dsn)
		}
		return OpenSQLiteStore(path, sessionKey)
	default:
		return nil, fmt.Errorf("fixstore: unsupported store scheme %q", scheme)
	}
}
