// Package snapshot exports the contents of a collection as a header line
// followed by compressed JSON lines, one record per line.
//
// The header is plain JSON so a snapshot can be identified without knowing
// its codec:
//
//	{"format":"memstore-snapshot/v1","collection":"orders","compression":"zstd","count":2,"exported_at":"..."}
//	<compressed: {"id":"O1",...}\n{"id":"O2",...}\n>
//
// Snapshots are operator tooling. Nothing loads them back into a store.
package snapshot

import (
	"bufio"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/ajitpratap0/memstore/pkg/compression"
	"github.com/ajitpratap0/memstore/pkg/errors"
	"github.com/ajitpratap0/memstore/pkg/json"
	"github.com/ajitpratap0/memstore/pkg/models"
)

// Format identifies the snapshot layout written by this package.
const Format = "memstore-snapshot/v1"

// maxPrealloc bounds the record slice Read sizes from an unverified header.
const maxPrealloc = 1024

// Header describes a snapshot.
type Header struct {
	Format      string                `json:"format"`
	Collection  string                `json:"collection"`
	Compression compression.Algorithm `json:"compression"`
	Count       int                   `json:"count"`
	ExportedAt  time.Time             `json:"exported_at"`
}

// Write writes records of collection to w, compressing the body with algo.
func Write(w io.Writer, collection string, records []*models.Record, algo compression.Algorithm) (*Header, error) {
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "snapshot compression")
	}

	h := &Header{
		Format:      Format,
		Collection:  collection,
		Compression: comp.Algorithm(),
		Count:       len(records),
		ExportedAt:  time.Now().UTC(),
	}
	if err := json.NewEncoder(w).Encode(h); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "write snapshot header")
	}

	cw, err := comp.NewWriter(w)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "open snapshot body")
	}
	enc := json.NewEncoder(cw)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = cw.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeData, "write snapshot record").
				WithDetail("id", r.ID)
		}
	}
	if err := cw.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "flush snapshot body")
	}
	return h, nil
}

// Read parses a snapshot produced by Write. It fails with a data error if
// the header is not recognised or the record count does not match.
func Read(r io.Reader) (*Header, []*models.Record, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeData, "read snapshot header")
	}

	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeData, "parse snapshot header")
	}
	if h.Format != Format {
		return nil, nil, errors.Newf(errors.ErrorTypeData, "unknown snapshot format %q", h.Format)
	}
	if h.Count < 0 {
		return nil, nil, errors.Newf(errors.ErrorTypeData, "negative snapshot record count %d", h.Count).
			WithDetail("collection", h.Collection)
	}

	comp, err := compression.NewCompressor(&compression.Config{Algorithm: h.Compression})
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeData, "snapshot compression")
	}
	body, err := comp.NewReader(br)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeData, "open snapshot body")
	}
	defer body.Close()

	records := make([]*models.Record, 0, min(h.Count, maxPrealloc))
	dec := json.NewDecoder(body)
	for {
		var rec models.Record
		err := dec.Decode(&rec)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeData, "decode snapshot record").
				WithDetail("index", len(records))
		}
		records = append(records, &rec)
	}

	if len(records) != h.Count {
		return nil, nil, errors.Newf(errors.ErrorTypeData, "snapshot header promises %d records, body has %d", h.Count, len(records)).
			WithDetail("collection", h.Collection)
	}
	return &h, records, nil
}

// WriteFile writes a snapshot to path, replacing any existing file.
func WriteFile(path, collection string, records []*models.Record, algo compression.Algorithm) (*Header, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "create snapshot file").WithDetail("path", path)
	}

	bw := bufio.NewWriter(f)
	h, err := Write(bw, collection, records, algo)
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "write snapshot file").WithDetail("path", path)
	}
	return h, nil
}

// ReadFile reads the snapshot at path.
func ReadFile(path string) (*Header, []*models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "open snapshot file").WithDetail("path", path)
	}
	defer f.Close()
	return Read(f)
}
