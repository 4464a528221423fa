package httpcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Entry is a stored response.
type Entry struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

func (e *Entry) response(req *http.Request) *http.Response {
	h := e.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(CacheStatusHeader, "HIT")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

// Storage keeps cache generations and their entries. Get returns
// common.ErrNotFound for a missing entry. Put creates the generation if it
// does not exist yet.
type Storage interface {
	CreateGeneration(ctx context.Context, name string) error
	MarkReady(ctx context.Context, name string) error
	IsReady(ctx context.Context, name string) (bool, error)
	Generations(ctx context.Context) ([]string, error)
	DeleteGeneration(ctx context.Context, name string) error
	Get(ctx context.Context, generation, key string) (*Entry, error)
	Put(ctx context.Context, generation, key string, e *Entry) error
}
