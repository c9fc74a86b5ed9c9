package client

import (
	"context"
	"net/http"

	"github.com/raynmakers/vigil/api"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// RouteDeadLetter records a failed job in the dead letter collection. Routing
// a job that is already dead lettered is not an error; check
// RouteResult.Status to tell the two apart.
func (c *Client) RouteDeadLetter(ctx context.Context, req dlq.RouteRequest) (*dlq.RouteResult, error) {
	var res dlq.RouteResult
	if err := c.do(ctx, http.MethodPost, "/v1/deadletters/route", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListDeadLetters returns dead letter entries, newest first.
func (c *Client) ListDeadLetters(ctx context.Context, opts ...QueryOption) ([]*dlq.Entry, error) {
	var entries []*dlq.Entry
	if err := c.do(ctx, http.MethodGet, "/v1/deadletters"+query(opts), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountDeadLetters counts dead letter entries matching the filters.
func (c *Client) CountDeadLetters(ctx context.Context, opts ...QueryOption) (int64, error) {
	var res api.CountResponse
	if err := c.do(ctx, http.MethodGet, "/v1/deadletters/count"+query(opts), nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

// GetDeadLetter retrieves one dead letter entry by ID.
func (c *Client) GetDeadLetter(ctx context.Context, entryID id.DeadLetterID) (*dlq.Entry, error) {
	var entry dlq.Entry
	if err := c.do(ctx, http.MethodGet, "/v1/deadletters/"+entryID.String(), nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ReplayDeadLetter requeues the entry's job for another attempt and returns
// the re-created job.
func (c *Client) ReplayDeadLetter(ctx context.Context, entryID id.DeadLetterID) (*job.Job, error) {
	var j job.Job
	if err := c.do(ctx, http.MethodPost, "/v1/deadletters/"+entryID.String()+"/replay", nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// PurgeDeadLetters removes entries older than retentionDays and reports how
// many were removed. retentionDays <= 0 applies the server default.
func (c *Client) PurgeDeadLetters(ctx context.Context, retentionDays int) (int64, error) {
	var in any
	if retentionDays > 0 {
		in = api.PurgeRequest{RetentionDays: retentionDays}
	}
	var res api.PurgeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/deadletters/purge", in, &res); err != nil {
		return 0, err
	}
	return res.Purged, nil
}
