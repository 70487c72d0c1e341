package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/galois26/ais-ingester/internal/model"
	"github.com/galois26/ais-ingester/internal/schema"
)

// ErrRowMismatch is returned when a row's fields differ from its group's columns.
var ErrRowMismatch = errors.New("row does not match group schema")

const lockRetry = 25 * time.Millisecond

// CSV appends batches to <dir>/<group>.csv, writing the header when the file
// is new. Writes to one group are serialised in-process by a mutex and across
// processes by an advisory lock on the file itself.
type CSV struct {
	dir string

	mu     sync.Mutex
	groups map[schema.Group]*sync.Mutex
}

func NewCSV(dir string) *CSV {
	if dir == "" {
		dir = "."
	}
	return &CSV{dir: dir, groups: make(map[schema.Group]*sync.Mutex)}
}

func (c *CSV) Name() string { return "csv" }

// Path returns the file a group is written to.
func (c *CSV) Path(group schema.Group) string {
	return filepath.Join(c.dir, string(group)+".csv")
}

func (c *CSV) Push(ctx context.Context, group schema.Group, batch model.Batch) error {
	if len(batch) == 0 {
		return nil
	}
	fields := schema.ForGroup(group)
	if fields == nil {
		return fmt.Errorf("csv: unknown group %q", string(group))
	}
	body, err := encodeRows(fields, batch)
	if err != nil {
		return fmt.Errorf("csv %s: %w", group, err)
	}

	mu := c.groupLock(group)
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("csv: create dir %s: %w", c.dir, err)
	}
	path := c.Path(group)
	fl := flock.New(path, flock.SetPermissions(0o644))
	locked, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("csv: lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("csv: lock %s: not acquired", path)
	}
	defer fl.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("csv: stat %s: %w", path, err)
	}

	var out []byte
	if info.Size() == 0 {
		header, err := encodeHeader(fields)
		if err != nil {
			f.Close()
			return err
		}
		out = append(header, body...)
	} else {
		out = body
	}
	if _, err := f.Write(out); err != nil {
		f.Close()
		return fmt.Errorf("csv: write %s: %w", path, err)
	}
	return f.Close()
}

func (c *CSV) groupLock(group schema.Group) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	mu, ok := c.groups[group]
	if !ok {
		mu = &sync.Mutex{}
		c.groups[group] = mu
	}
	return mu
}

func encodeHeader(fields []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// encodeRows renders the whole batch up front so nothing reaches the file if
// any row is malformed.
func encodeRows(fields []string, batch model.Batch) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rec := make([]string, len(fields))
	for i, row := range batch {
		if len(row) != len(fields) {
			return nil, fmt.Errorf("%w: row %d has %d fields, want %d", ErrRowMismatch, i, len(row), len(fields))
		}
		for j, f := range fields {
			v, ok := row[f]
			if !ok {
				return nil, fmt.Errorf("%w: row %d missing %s", ErrRowMismatch, i, f)
			}
			rec[j] = render(v)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
