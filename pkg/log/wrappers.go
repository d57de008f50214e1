// Copyright 2019 ETH Zurich, Anapaya Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

// Debug logs at debug level.
func Debug(msg string, ctx ...any) {
	Root().Debug(msg, ctx...)
}

// Info logs at info level.
func Info(msg string, ctx ...any) {
	Root().Info(msg, ctx...)
}

// Error logs at error level.
func Error(msg string, ctx ...any) {
	Root().Error(msg, ctx...)
}

// New creates a logger with the given context.
func New(ctx ...any) Logger {
	return Root().New(ctx...)
}

// Root returns the root logger. It's a logger without any context.
func Root() Logger {
	rootMtx.RLock()
	defer rootMtx.RUnlock()
	return &logger{logger: rootLogger}
}

// Discard returns a logger that drops all entries.
func Discard() Logger {
	return DiscardLogger{}
}

// SafeDebug logs to l only if l is not nil.
func SafeDebug(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Debug(msg, ctx...)
	}
}

// SafeInfo logs to l only if l is not nil.
func SafeInfo(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Info(msg, ctx...)
	}
}

// SafeError logs to l only if l is not nil.
func SafeError(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Error(msg, ctx...)
	}
}

// DiscardLogger implements the Logger interface and discards all messages.
type DiscardLogger struct{}

func (d DiscardLogger) New(ctx ...any) Logger {
	return d
}

func (DiscardLogger) Debug(msg string, ctx ...any) {}

func (DiscardLogger) Info(msg string, ctx ...any) {}

func (DiscardLogger) Error(msg string, ctx ...any) {}

func (DiscardLogger) Enabled(lvl Level) bool {
	return false
}
