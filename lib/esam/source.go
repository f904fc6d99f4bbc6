//
// Copyright (C) 2015-2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/sam"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"git.sr.ht/~vejnar/GeneBody/lib/coverage"
	"git.sr.ht/~vejnar/GeneBody/lib/errs"
)

const (
	batchLength  = 1024
	batchChannel = 8
)

type batch struct {
	refID   int
	records []*sam.Record
}

// Source reads the alignments of a SAM or BAM file one reference at a time.
//
// A BAM file with a ".bai" index is read with random access. Any other input is
// decoded once, in file order, by a read-ahead goroutine; references must then be
// fetched in header order and the input must be coordinate sorted.
type Source struct {
	path   PathSAM
	header *sam.Header
	logger *zap.Logger

	file *os.File
	pipe io.ReadCloser
	cmd  *exec.Cmd

	// Indexed
	bamReader *bam.Reader
	index     *bam.Index

	// Streaming
	cancel  context.CancelFunc
	g       *errgroup.Group
	batches chan batch
	pending *batch
	nextRef int
	eof     bool
}

// Open opens an alignment file. For SAM input, if cmd is not empty, the file is read from
// the standard output of cmd executed with the path as last argument.
func Open(pathSAM PathSAM, cmd []string, nWorker int) (s *Source, err error) {
	s = &Source{path: pathSAM, logger: zap.NewNop()}
	defer func() {
		if err != nil {
			s.Close()
			s = nil
		}
	}()
	var rr sam.RecordReader
	if pathSAM.Binary {
		if s.file, err = os.Open(pathSAM.Path); err != nil {
			return s, fmt.Errorf("%w: %v", errs.ErrInput, err)
		}
		var br *bam.Reader
		if br, err = bam.NewReader(s.file, max(1, nWorker)); err != nil {
			return s, fmt.Errorf("%w: %s: %v", errs.ErrInput, pathSAM.Path, err)
		}
		s.bamReader, s.header, rr = br, br.Header(), br
		// Index
		var fi *os.File
		if fi, err = os.Open(pathSAM.Path + ".bai"); err == nil {
			s.index, err = bam.ReadIndex(fi)
			fi.Close()
			if err != nil {
				return s, fmt.Errorf("%w: %s.bai: %v", errs.ErrInput, pathSAM.Path, err)
			}
			return s, nil
		} else if !os.IsNotExist(err) {
			return s, fmt.Errorf("%w: %v", errs.ErrInput, err)
		}
		err = nil
	} else {
		var r io.Reader
		if len(cmd) == 0 {
			if s.file, err = os.Open(pathSAM.Path); err != nil {
				return s, fmt.Errorf("%w: %v", errs.ErrInput, err)
			}
			r = s.file
		} else {
			args := append(append([]string{}, cmd[1:]...), pathSAM.Path)
			s.cmd = exec.Command(cmd[0], args...)
			s.cmd.Stderr = os.Stderr
			if s.pipe, err = s.cmd.StdoutPipe(); err != nil {
				return s, err
			}
			if err = s.cmd.Start(); err != nil {
				s.cmd = nil
				return s, fmt.Errorf("%w: starting %s: %v", errs.ErrInput, cmd[0], err)
			}
			r = s.pipe
		}
		var sr *sam.Reader
		if sr, err = sam.NewReader(r); err != nil {
			return s, fmt.Errorf("%w: %s: %v", errs.ErrInput, pathSAM.Path, err)
		}
		s.header, rr = sr.Header(), sr
	}
	s.startStream(rr)
	return s, nil
}

// SetLogger sets the logger used by the source.
func (s *Source) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// Header returns the SAM header of the input.
func (s *Source) Header() *sam.Header { return s.header }

// Refs returns the references in header order.
func (s *Source) Refs() []*sam.Reference { return s.header.Refs() }

// Indexed reports whether the source uses a BAM index.
func (s *Source) Indexed() bool { return s.index != nil }

// Fetch returns an iterator over the alignments placed on ref. Without an index, the
// previous iterator must not be used after calling Fetch.
func (s *Source) Fetch(ctx context.Context, ref *sam.Reference) (coverage.Iterator, error) {
	refs := s.header.Refs()
	if ref == nil || ref.ID() < 0 || ref.ID() >= len(refs) || refs[ref.ID()] != ref {
		return nil, fmt.Errorf("reference %v not found in header of %s", ref, s.path.Path)
	}
	s.logger.Debug("reading alignments", zap.String("ref", ref.Name()), zap.Bool("indexed", s.index != nil))
	if s.index != nil {
		return s.fetchIndexed(ref)
	}
	if ref.ID() < s.nextRef {
		return nil, fmt.Errorf("%s: reference %s requested after a following reference", s.path.Path, ref.Name())
	}
	s.nextRef = ref.ID() + 1
	return &streamIterator{s: s, ctx: ctx, refID: ref.ID()}, nil
}

func (s *Source) fetchIndexed(ref *sam.Reference) (coverage.Iterator, error) {
	chunks, err := s.index.Chunks(ref, 0, ref.Len())
	if err == index.ErrInvalid || len(chunks) == 0 {
		// No alignment on ref
		return coverage.NewSliceIterator(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrInput, s.path.Path, err)
	}
	it, err := bam.NewIterator(s.bamReader, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrInput, s.path.Path, err)
	}
	return &indexIterator{it: it, refID: ref.ID()}, nil
}

// Close stops the read-ahead goroutine and closes the input.
func (s *Source) Close() error {
	var err error
	if s.cancel != nil {
		s.cancel()
		if werr := s.g.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
			err = werr
		}
		s.cancel = nil
	}
	if s.bamReader != nil {
		if cerr := s.bamReader.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: %s: %v", errs.ErrInput, s.path.Path, cerr)
		}
	}
	if s.pipe != nil {
		s.pipe.Close()
	}
	if s.cmd != nil {
		// A command stopped early by the closed pipe is not an error
		if cerr := s.cmd.Wait(); err == nil && cerr != nil && s.eof {
			err = fmt.Errorf("%w: %s: %v", errs.ErrInput, s.cmd.Path, cerr)
		} else if cerr != nil {
			s.logger.Debug("input command stopped", zap.Error(cerr))
		}
	}
	if s.file != nil {
		s.file.Close()
	}
	return err
}

func (s *Source) startStream(rr sam.RecordReader) {
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.g, ctx = errgroup.WithContext(ctx)
	s.batches = make(chan batch, batchChannel)
	s.g.Go(func() error {
		return s.stream(ctx, rr)
	})
}

// stream decodes records in file order and sends them in batches of consecutive
// records placed on the same reference.
func (s *Source) stream(ctx context.Context, rr sam.RecordReader) error {
	defer close(s.batches)
	refs := s.header.Refs()
	cur := -1
	records := make([]*sam.Record, 0, batchLength)
	send := func() error {
		if len(records) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.batches <- batch{refID: cur, records: records}:
		}
		records = make([]*sam.Record, 0, batchLength)
		return nil
	}
	for {
		r, err := rr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("%w: %s: %v", errs.ErrInput, s.path.Path, err)
		}
		// Unplaced
		if r.Ref == nil {
			continue
		}
		id := r.Ref.ID()
		if id < cur {
			return fmt.Errorf("%w: %s is not coordinate sorted (%s found after %s)", errs.ErrInput, s.path.Path, r.Ref.Name(), refs[cur].Name())
		}
		if id != cur || len(records) == batchLength {
			if err = send(); err != nil {
				return err
			}
			cur = id
		}
		records = append(records, r)
	}
	s.eof = true
	return send()
}

// receive returns the next batch, or false at the end of the input.
func (s *Source) receive(ctx context.Context) (batch, bool, error) {
	if s.pending != nil {
		b := *s.pending
		s.pending = nil
		return b, true, nil
	}
	select {
	case <-ctx.Done():
		return batch{}, false, ctx.Err()
	case b, ok := <-s.batches:
		if !ok {
			return batch{}, false, s.g.Wait()
		}
		return b, true, nil
	}
}

type streamIterator struct {
	s       *Source
	ctx     context.Context
	refID   int
	records []*sam.Record
	i       int
	aln     coverage.Alignment
	err     error
	done    bool
}

func (it *streamIterator) Next() bool {
	for !it.done {
		if it.i < len(it.records) {
			toAlignment(it.records[it.i], &it.aln)
			it.i++
			return true
		}
		it.records, it.i = nil, 0
		b, ok, err := it.s.receive(it.ctx)
		if err != nil || !ok {
			it.err = err
			it.done = true
			break
		}
		switch {
		case b.refID < it.refID:
			// Skipped reference
		case b.refID == it.refID:
			it.records = b.records
		default:
			it.s.pending = &b
			it.done = true
		}
	}
	return false
}

func (it *streamIterator) Alignment() *coverage.Alignment { return &it.aln }

func (it *streamIterator) Err() error { return it.err }

type indexIterator struct {
	it    *bam.Iterator
	refID int
	aln   coverage.Alignment
}

func (it *indexIterator) Next() bool {
	for it.it.Next() {
		r := it.it.Record()
		if r.Ref == nil || r.Ref.ID() != it.refID {
			continue
		}
		toAlignment(r, &it.aln)
		return true
	}
	return false
}

func (it *indexIterator) Alignment() *coverage.Alignment { return &it.aln }

func (it *indexIterator) Err() error {
	if err := it.it.Error(); err != nil && err != io.EOF {
		return fmt.Errorf("%w: %v", errs.ErrInput, err)
	}
	return nil
}
