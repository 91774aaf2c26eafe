package events

import (
	"cmp"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/shed/codec"
	"github.com/hupe1980/shed/objstore"
	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
)

const objectSuffix = ".json.zst"

// JournalOptions configures a Journal.
type JournalOptions struct {
	// Prefix is the object name prefix. Defaults to "events".
	Prefix string

	// Codec encodes events. Defaults to codec.Default.
	Codec codec.Codec

	// CompressionLevel is a zstd level (1-22). 0 uses the zstd default.
	CompressionLevel int

	// Logger receives journal activity.
	Logger *slog.Logger
}

// Journal is a Publisher that persists events to an object store.
type Journal struct {
	store objstore.Store
	opts  JournalOptions

	enc *zstd.Encoder
	dec *zstd.Decoder
}

var _ Publisher = (*Journal)(nil)

// NewJournal creates a Journal writing to st. Close releases its codecs.
func NewJournal(st objstore.Store, optFns ...func(o *JournalOptions)) (*Journal, error) {
	opts := JournalOptions{
		Prefix: "events",
		Codec:  codec.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts.Prefix = strings.Trim(opts.Prefix, "/")

	encOpts := []zstd.EOption{}
	if opts.CompressionLevel > 0 {
		encOpts = append(encOpts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.CompressionLevel)))
	}
	enc, err := zstd.NewWriter(nil, encOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &Journal{store: st, opts: opts, enc: enc, dec: dec}, nil
}

// Key returns the object name ev is stored under.
func (j *Journal) Key(ev Event) (string, error) {
	_, name, err := j.encode(ev)
	return name, err
}

func (j *Journal) encode(ev Event) ([]byte, string, error) {
	data, err := j.opts.Codec.Marshal(ev)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode event: %w", err)
	}
	sum := blake3.Sum256(data)
	day := ev.Time.UTC().Format("2006/01/02")
	return data, path.Join(j.opts.Prefix, day, hex.EncodeToString(sum[:])+objectSuffix), nil
}

// Publish writes ev as a single compressed object.
func (j *Journal) Publish(ctx context.Context, ev Event) error {
	data, name, err := j.encode(ev)
	if err != nil {
		return err
	}

	if err := j.store.Put(ctx, name, j.enc.EncodeAll(data, nil)); err != nil {
		return fmt.Errorf("failed to write event %s: %w", name, err)
	}

	j.opts.Logger.DebugContext(ctx, "event journaled",
		"type", ev.Type,
		"id", uint64(ev.Record.ID),
		"object", name,
	)
	return nil
}

// Replay reads every journaled event, ordered by time. Events with equal
// timestamps keep object name order.
func (j *Journal) Replay(ctx context.Context) ([]Event, error) {
	names, err := j.store.List(ctx, j.listPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}

	evs := make([]Event, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, objectSuffix) {
			continue
		}

		raw, err := j.store.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read event %s: %w", name, err)
		}
		data, err := j.dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress event %s: %w", name, err)
		}

		var ev Event
		if err := j.opts.Codec.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode event %s: %w", name, err)
		}
		evs = append(evs, ev)
	}

	slices.SortStableFunc(evs, func(a, b Event) int {
		return cmp.Compare(a.Time.UnixNano(), b.Time.UnixNano())
	})

	j.opts.Logger.DebugContext(ctx, "journal replayed", "events", len(evs))
	return evs, nil
}

// listPrefix scopes listing to the journal. An empty prefix journals at the
// store root and lists everything.
func (j *Journal) listPrefix() string {
	if j.opts.Prefix == "" {
		return ""
	}
	return j.opts.Prefix + "/"
}

// Close releases the compression resources.
func (j *Journal) Close() error {
	j.dec.Close()
	return j.enc.Close()
}
