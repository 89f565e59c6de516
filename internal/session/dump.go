// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"gopkg.in/yaml.v3"

	"github.com/SC-SGS/hardware-sampling/internal/version"
)

// Format selects the serialization format of a session dump.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat converts a string into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: unknown dump format %q", ErrInvalidArgument, s)
	}
}

// document is the serialized form of one stopped session. Sample and
// event instants are stored as offsets relative to the session start
// so documents from different sessions line up.
type document struct {
	Device     string        `yaml:"device_identification" json:"device_identification"`
	Version    string        `yaml:"version" json:"version"`
	StartTime  string        `yaml:"start_time" json:"start_time"`
	StopTime   string        `yaml:"stop_time" json:"stop_time"`
	IntervalMS int64         `yaml:"sampling_interval_ms" json:"sampling_interval_ms"`
	Metrics    []string      `yaml:"metrics" json:"metrics"`
	Samples    []sampleEntry `yaml:"samples" json:"samples"`
	Events     []eventEntry  `yaml:"events" json:"events"`
	Gaps       []gapEntry    `yaml:"gaps,omitempty" json:"gaps,omitempty"`
}

type sampleEntry struct {
	Offset float64            `yaml:"time_offset_seconds" json:"time_offset_seconds"`
	Values map[string]float64 `yaml:"values" json:"values"`
}

type eventEntry struct {
	Offset float64 `yaml:"time_offset_seconds" json:"time_offset_seconds"`
	Label  string  `yaml:"label" json:"label"`
}

type gapEntry struct {
	Offset float64 `yaml:"time_offset_seconds" json:"time_offset_seconds"`
	Reason string  `yaml:"reason" json:"reason"`
}

// csvRow is the long-format row used for CSV dumps: one row per
// sampled metric value, event or gap.
type csvRow struct {
	Device string  `csv:"device"`
	Kind   string  `csv:"kind"`
	Offset float64 `csv:"time_offset_seconds"`
	Metric string  `csv:"metric,omitempty"`
	Value  float64 `csv:"value"`
	Label  string  `csv:"label,omitempty"`
}

// Dump serializes the stopped session to path in the given format.
// The file is written atomically: content goes to a temporary file in
// the same directory which is renamed over the target on success, so
// a failed dump never leaves a partial file at path. Dumping the same
// stopped session twice produces byte-identical output.
func (s *Session) Dump(path string, format Format) error {
	if s.State() != Stopped {
		return fmt.Errorf("%w: can dump a session only after it has been stopped", ErrInvalidState)
	}

	data, err := encodeDocuments(format, []document{s.document()})
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// document builds the serialized form of this session. Valid only
// once the session is Stopped.
func (s *Session) document() document {
	meta := s.Metadata()

	doc := document{
		Device:     meta.Device,
		Version:    version.Info().Version,
		StartTime:  meta.StartTime.Format(time.RFC3339Nano),
		StopTime:   meta.StopTime.Format(time.RFC3339Nano),
		IntervalMS: meta.Interval.Milliseconds(),
		Metrics:    meta.Metrics,
		Samples:    []sampleEntry{},
		Events:     []eventEntry{},
	}

	for _, sample := range s.Samples() {
		doc.Samples = append(doc.Samples, sampleEntry{
			Offset: sample.Time.Sub(meta.StartTime).Seconds(),
			Values: sample.Values,
		})
	}
	for _, event := range s.Events() {
		doc.Events = append(doc.Events, eventEntry{
			Offset: event.Time.Sub(meta.StartTime).Seconds(),
			Label:  event.Label,
		})
	}
	for _, gap := range s.Gaps() {
		doc.Gaps = append(doc.Gaps, gapEntry{
			Offset: gap.Time.Sub(meta.StartTime).Seconds(),
			Reason: gap.Reason,
		})
	}
	return doc
}

// encodeDocuments renders one or more session documents into a single
// byte stream. YAML output separates documents with "---" so multiple
// sessions can share one file.
func encodeDocuments(format Format, docs []document) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		for _, doc := range docs {
			buf.WriteString("---\n")
			data, err := yaml.Marshal(doc)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal session to yaml: %w", err)
			}
			buf.Write(data)
		}
		return buf.Bytes(), nil

	case FormatJSON:
		var data []byte
		var err error
		if len(docs) == 1 {
			data, err = json.MarshalIndent(docs[0], "", "  ")
		} else {
			data, err = json.MarshalIndent(docs, "", "  ")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session to json: %w", err)
		}
		return append(data, '\n'), nil

	case FormatCSV:
		var rows []csvRow
		for _, doc := range docs {
			rows = append(rows, doc.csvRows()...)
		}
		data, err := csvutil.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal session to csv: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("%w: unknown dump format %q", ErrInvalidArgument, format)
	}
}

// csvRows flattens the document into long-format rows, metrics in the
// declared (sorted) order so output is deterministic.
func (d document) csvRows() []csvRow {
	var rows []csvRow
	for _, sample := range d.Samples {
		for _, metric := range d.Metrics {
			value, ok := sample.Values[metric]
			if !ok {
				continue
			}
			rows = append(rows, csvRow{
				Device: d.Device,
				Kind:   "sample",
				Offset: sample.Offset,
				Metric: metric,
				Value:  value,
			})
		}
	}
	for _, event := range d.Events {
		rows = append(rows, csvRow{
			Device: d.Device,
			Kind:   "event",
			Offset: event.Offset,
			Label:  event.Label,
		})
	}
	for _, gap := range d.Gaps {
		rows = append(rows, csvRow{
			Device: d.Device,
			Kind:   "gap",
			Offset: gap.Offset,
			Label:  gap.Reason,
		})
	}
	return rows
}

// atomicWrite writes data to path via a temporary file and rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary dump file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write dump file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to sync dump file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close dump file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename dump file into place: %w", err)
	}
	return nil
}
