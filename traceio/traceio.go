// Package traceio parses the line-oriented trace format the
// demonstration CLI replays: a sequence of instruction-execute,
// memory-access, and injection-plan records driving the access driver
// and fault injector. This is ambient tooling, outside the core
// cache/armdecode/driver/inject packages, kept isolated here so the
// core never imports it.
package traceio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/armcachesim/cache"
	"github.com/sarchlab/armcachesim/inject"
)

// RecordKind distinguishes the three trace line forms.
type RecordKind uint8

// Trace record kinds.
const (
	RecordExec RecordKind = iota
	RecordMem
	RecordInject
)

// MemDirection is the access direction carried by a RecordMem line.
type MemDirection uint8

// Memory access directions.
const (
	MemRead MemDirection = iota
	MemWrite
)

// Record is one parsed trace line.
type Record struct {
	Kind RecordKind

	// RecordExec fields.
	Addr uint64
	Word uint32

	// RecordMem fields.
	MemAddr uint64
	Dir     MemDirection

	// RecordInject fields.
	Plan inject.Plan
}

// ErrMalformedLine is returned for any trace line that does not match
// one of the three recognized forms.
var ErrMalformedLine = fmt.Errorf("traceio: malformed trace line")

// ScanTrace reads newline-delimited trace records from r, calling fn
// for each successfully parsed Record. It stops and returns the first
// parse error, wrapped with the offending line number.
func ScanTrace(r io.Reader, fn func(Record) error) error {
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return fmt.Errorf("traceio: line %d: %w", lineNo, err)
		}

		if err := fn(rec); err != nil {
			return fmt.Errorf("traceio: line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("traceio: scan: %w", err)
	}

	return nil
}

func parseLine(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Record{}, ErrMalformedLine
	}

	switch fields[0] {
	case "EXEC":
		return parseExec(fields)
	case "MEM":
		return parseMem(fields)
	case "INJECT":
		return parseInject(fields)
	default:
		return Record{}, fmt.Errorf("%w: unknown record kind %q", ErrMalformedLine, fields[0])
	}
}

func parseExec(fields []string) (Record, error) {
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: EXEC wants 2 fields, got %d", ErrMalformedLine, len(fields)-1)
	}

	addr, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: EXEC addr: %v", ErrMalformedLine, err)
	}

	word, err := strconv.ParseUint(fields[2], 16, 32)
	if err != nil {
		return Record{}, fmt.Errorf("%w: EXEC word: %v", ErrMalformedLine, err)
	}

	return Record{Kind: RecordExec, Addr: addr, Word: uint32(word)}, nil
}

func parseMem(fields []string) (Record, error) {
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: MEM wants 2 fields, got %d", ErrMalformedLine, len(fields)-1)
	}

	addr, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: MEM addr: %v", ErrMalformedLine, err)
	}

	var dir MemDirection
	switch fields[2] {
	case "R":
		dir = MemRead
	case "W":
		dir = MemWrite
	default:
		return Record{}, fmt.Errorf("%w: MEM direction must be R or W, got %q", ErrMalformedLine, fields[2])
	}

	return Record{Kind: RecordMem, MemAddr: addr, Dir: dir}, nil
}

func parseInject(fields []string) (Record, error) {
	if len(fields) != 6 {
		return Record{}, fmt.Errorf("%w: INJECT wants 5 fields, got %d", ErrMalformedLine, len(fields)-1)
	}

	sleep, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: INJECT sleep_cycles: %v", ErrMalformedLine, err)
	}

	target, err := parseCacheName(fields[2])
	if err != nil {
		return Record{}, err
	}

	row, err := strconv.Atoi(fields[3])
	if err != nil {
		return Record{}, fmt.Errorf("%w: INJECT row: %v", ErrMalformedLine, err)
	}

	way, err := strconv.Atoi(fields[4])
	if err != nil {
		return Record{}, fmt.Errorf("%w: INJECT way: %v", ErrMalformedLine, err)
	}

	word, err := strconv.Atoi(fields[5])
	if err != nil {
		return Record{}, fmt.Errorf("%w: INJECT word_in_block: %v", ErrMalformedLine, err)
	}

	return Record{
		Kind: RecordInject,
		Plan: inject.Plan{
			SleepCycles: sleep,
			Cache:       target,
			Row:         row,
			Way:         way,
			WordInBlock: word,
		},
	}, nil
}

func parseCacheName(s string) (cache.Target, error) {
	switch cache.Target(s) {
	case cache.ICache, cache.DCache, cache.L2Cache:
		return cache.Target(s), nil
	default:
		return "", fmt.Errorf("%w: unknown cache_name %q", ErrMalformedLine, s)
	}
}
