package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// defaultPageSize is the PostgREST page size used by full-table reads.
const defaultPageSize = 1000

// tableSource names a table candidate and the column its pages are ordered
// by. Candidates are tried in order; once a table serves the first page
// successfully it is committed to for the rest of the fetch.
type tableSource struct {
	Table    string
	OrderKey string
}

// fetchAll reads an entire table page by page, ordered ascending by the
// source's key so pages never shuffle between requests. A failure on the
// first page moves on to the next candidate; a failure on a later page
// (or a deadline hit) logs a truncation warning and returns what was
// accumulated so far.
func (c *Client) fetchAll(ctx context.Context, sources []tableSource, pageSize int) ([]json.RawMessage, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var firstPageErr error
	for _, src := range sources {
		rows, err := c.fetchAllFrom(ctx, src, pageSize)
		if err == nil {
			return rows, nil
		}
		if firstPageErr == nil {
			firstPageErr = err
		}
		c.logger.Warn("supabase: first page failed, trying next source",
			zap.String("table", src.Table),
			zap.Error(err),
		)
	}
	return nil, fmt.Errorf("all sources failed: %w", firstPageErr)
}

func (c *Client) fetchAllFrom(ctx context.Context, src tableSource, pageSize int) ([]json.RawMessage, error) {
	var acc []json.RawMessage
	for offset := 0; ; offset += pageSize {
		path := fmt.Sprintf("%s?select=*&order=%s.asc&limit=%d&offset=%d",
			src.Table, src.OrderKey, pageSize, offset)

		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			if offset == 0 {
				return nil, err
			}
			// Mid-fetch failure: the rows already read are still
			// useful, so surface them with a truncation warning
			// rather than discarding the whole result.
			c.logger.Warn("supabase: pagination truncated",
				zap.String("table", src.Table),
				zap.Int("rows", len(acc)),
				zap.Error(err),
			)
			return acc, nil
		}

		var page []json.RawMessage
		if body != nil {
			if err := json.Unmarshal(body, &page); err != nil {
				if offset == 0 {
					return nil, fmt.Errorf("decode page from %s: %w", src.Table, err)
				}
				c.logger.Warn("supabase: pagination truncated on bad page",
					zap.String("table", src.Table),
					zap.Int("rows", len(acc)),
					zap.Error(err),
				)
				return acc, nil
			}
		}

		acc = append(acc, page...)
		if len(page) < pageSize {
			return acc, nil
		}
	}
}
