// Copyright (C) 2022-2023, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.

// Central log (stdout/stderr) of the program
package logger

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type MyLogger struct {
	// Writing to the same slot allows to clobber stuff so that we don't see the
	// same thing written over and over again
	slots []string
	// Mutex is used to order writes to stdout and stderr, as well as Sync call
	mu        sync.Mutex
	out       *zap.SugaredLogger
	errs      *zap.SugaredLogger
	verbosity int
}

// Logs specific to one task (one level being built). Their output is not
// forwarded to stdout or stderr, but is instead buffered until merged into
// main log of MyLogger type.
type MiniLogger struct {
	buf       bytes.Buffer
	errs      bytes.Buffer // goes to stderr once merged
	slots     []string
	verbosity int
}

// Message-only console encoder: the program talks to the user, timestamps
// and levels would only be noise here
func plainEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey: "msg",
		LineEnding: zapcore.DefaultLineEnding,
	})
}

func CreateLogger() *MyLogger {
	return CreateLoggerWithCores(
		zapcore.NewCore(plainEncoder(), zapcore.Lock(os.Stdout), zapcore.DebugLevel),
		zapcore.NewCore(plainEncoder(), zapcore.Lock(os.Stderr), zapcore.DebugLevel),
	)
}

// CreateLoggerWithCores allows to redirect normal and error output anywhere
// zap can write to (tests use an observer core)
func CreateLoggerWithCores(outCore, errCore zapcore.Core) *MyLogger {
	return &MyLogger{
		out:  zap.New(outCore).Sugar(),
		errs: zap.New(errCore).Sugar(),
	}
}

var Log = CreateLogger()

// zap terminates every entry itself
func trimMsg(s string) string {
	return strings.TrimRight(s, "\n")
}

func (log *MyLogger) SetVerbosity(level int) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.verbosity = level
}

func (log *MyLogger) Verbosity() int {
	log.mu.Lock()
	defer log.mu.Unlock()
	return log.verbosity
}

// Your generic printf to let user see things
func (log *MyLogger) Printf(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.out.Info(trimMsg(fmt.Sprintf(s, a...)))
}

// As generic as printf, but writes to stderr instead of stdout
// Does NOT interrupt execution of the program
func (log *MyLogger) Error(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.errs.Error(trimMsg(fmt.Sprintf(s, a...)))
}

// For advanced users or users that are curious, or programmers, there is
// stuff they might want to see but only when they can really bother to spend
// time reading it
func (log *MyLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	if verbosityLevel <= log.verbosity {
		log.out.Debug(trimMsg(fmt.Sprintf(s, a...)))
	}
}

// Writes to the slot, clobbering whatever was there before us in that same slot
// Used when need to debug something in nodes builder but it's worthless to
// repeat if it concerns the same thing
func (log *MyLogger) Push(slotNumber int, s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	for slotNumber >= len(log.slots) {
		log.slots = append(log.slots, "")
	}
	log.slots[slotNumber] = fmt.Sprintf(s, a...)
}

// Now that slots have been written over multiple times, time to see what was
// written to begin with
func (log *MyLogger) Flush() {
	log.mu.Lock()
	defer log.mu.Unlock()
	for _, slot := range log.slots {
		if slot != "" {
			log.out.Info(trimMsg(slot))
		}
	}
	log.slots = nil
}

// Sync is used to wait until all messages are written to the output
func (log *MyLogger) Sync() {
	log.mu.Lock()
	defer log.mu.Unlock()
	// stdout/stderr can refuse fsync (pipes, terminals), nothing to do about it
	_ = log.out.Sync()
	_ = log.errs.Sync()
}

func (log *MyLogger) Merge(mlog *MiniLogger, preface string) {
	if mlog == nil {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	if len(preface) > 0 {
		log.out.Info(trimMsg(preface))
	}
	content := mlog.buf.String()
	if len(content) > 0 {
		log.out.Info(trimMsg(content))
	}
	errContent := mlog.errs.String()
	if len(errContent) > 0 {
		log.errs.Error(trimMsg(errContent))
	}
	if len(mlog.slots) > 0 {
		log.slots = append(log.slots, mlog.slots...)
	}
}

func CreateMiniLogger(verbosity int) *MiniLogger {
	return &MiniLogger{verbosity: verbosity}
}

func (mlog *MiniLogger) Printf(s string, a ...interface{}) {
	if mlog == nil {
		Log.Printf(s, a...)
		return
	}
	mlog.buf.WriteString(fmt.Sprintf(s, a...))
}

// Errors of a task are buffered apart from the rest of its output, and go to
// stderr when the task is merged
func (mlog *MiniLogger) Error(s string, a ...interface{}) {
	if mlog == nil {
		Log.Error(s, a...)
		return
	}
	mlog.errs.WriteString(fmt.Sprintf(s, a...))
}

func (mlog *MiniLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	if mlog == nil {
		Log.Verbose(verbosityLevel, s, a...)
		return
	}
	if verbosityLevel <= mlog.verbosity {
		mlog.buf.WriteString(fmt.Sprintf(s, a...))
	}
}

func (mlog *MiniLogger) Push(slotNumber int, s string, a ...interface{}) {
	if mlog == nil {
		Log.Push(slotNumber, s, a...)
		return
	}
	for slotNumber >= len(mlog.slots) {
		mlog.slots = append(mlog.slots, "")
	}
	mlog.slots[slotNumber] = fmt.Sprintf(s, a...)
}

func (mlog *MiniLogger) String() string {
	if mlog == nil {
		return ""
	}
	return mlog.buf.String()
}

// Errors returns what was written by Error so far
func (mlog *MiniLogger) Errors() string {
	if mlog == nil {
		return ""
	}
	return mlog.errs.String()
}

// Slots returns non-empty slots, in slot order
func (mlog *MiniLogger) Slots() []string {
	if mlog == nil {
		return nil
	}
	var res []string
	for _, slot := range mlog.slots {
		if slot != "" {
			res = append(res, slot)
		}
	}
	return res
}
