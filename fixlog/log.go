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

// Package fixlog wires github.com/sirupsen/logrus as this module's logger:
// a package-level logger constructed once, with per-component/per-session
// entries derived from it so concurrent sessions' log lines stay
// attributable to the session that emitted them.
package fixlog

import "github.com/sirupsen/logrus"

var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel adjusts the base logger's verbosity.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// ForSession returns a log entry pre-seeded with session identity fields, so
// every line emitted while processing that session's traffic carries its
// coordinates without the caller repeating them.
func ForSession(beginString, sender, target string) *logrus.Entry {
	return base.WithFields(logrus.Fields{
		"component": "fixsession",
		"begin":     beginString,
		"sender":    sender,
		"target":    target,
	})
}

// ForComponent returns a log entry tagged with the given component name,
// for packages that aren't session-scoped (fixserver, fixstore, cmd/...).
func ForComponent(name string) *logrus.Entry {
	return base.WithField("component", name)
}
